package network

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 02/03/2026
 * Time: 09:50
 */

func TestByteListMarshalsAsIntegerArray(t *testing.T) {
	data, err := json.Marshal(ByteList{0, 1, 127, 255})
	require.NoError(t, err)
	assert.Equal(t, "[0,1,127,255]", string(data), "bytes must travel as integers, not base64")

	data, err = json.Marshal(ByteList{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestByteListUnmarshal(t *testing.T) {
	var b ByteList
	require.NoError(t, json.Unmarshal([]byte("[0,1,127,255]"), &b))
	assert.Equal(t, ByteList{0, 1, 127, 255}, b)

	tests := []struct {
		name string
		in   string
	}{
		{"negative", "[-1]"},
		{"too large", "[256]"},
		{"not an array", `"AAE="`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ByteList
			err := json.Unmarshal([]byte(tt.in), &out)
			assert.ErrorIs(t, err, ErrMalformedPackage)
		})
	}
}

func TestPackageExternallyTagged(t *testing.T) {
	pkg := Package{Version: &VersionPayload{
		AddrFrom:   "127.0.0.1:2001",
		Version:    1,
		BestHeight: 3,
	}}

	data, err := json.Marshal(pkg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"Version":{"addr_from":"127.0.0.1:2001","version":1,"best_height":3}}`,
		string(data), "exactly one variant key, snake_case fields")
}

func TestPackageRoundTrip(t *testing.T) {
	packages := []Package{
		{Version: &VersionPayload{AddrFrom: "127.0.0.1:2001", Version: 1, BestHeight: 3}},
		{GetBlocks: &GetBlocksPayload{AddrFrom: "127.0.0.1:2002"}},
		{Inv: &InvPayload{AddrFrom: "127.0.0.1:2001", OpType: OpTypeBlock, Items: []ByteList{{1, 2}, {3, 4}}}},
		{GetData: &GetDataPayload{AddrFrom: "127.0.0.1:2002", OpType: OpTypeTx, ID: ByteList{9, 8, 7}}},
		{Block: &BlockPayload{AddrFrom: "127.0.0.1:2001", Block: ByteList{1}}},
		{Tx: &TxPayload{AddrFrom: "127.0.0.1:2001", Transaction: ByteList{2}}},
	}

	for _, pkg := range packages {
		data, err := json.Marshal(pkg)
		require.NoError(t, err)

		var decoded Package
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.NoError(t, decoded.Validate())
		assert.Equal(t, pkg, decoded)
	}
}

func TestPackageValidate(t *testing.T) {
	var empty Package
	assert.ErrorIs(t, empty.Validate(), ErrMalformedPackage)

	two := Package{
		GetBlocks: &GetBlocksPayload{AddrFrom: "a"},
		Version:   &VersionPayload{AddrFrom: "a"},
	}
	assert.ErrorIs(t, two.Validate(), ErrMalformedPackage)
}

func TestPackageStreamDecoding(t *testing.T) {
	// a connection carries back-to-back packages; the reader must consume a
	// sequence, not a single message
	stream := `{"GetBlocks":{"addr_from":"127.0.0.1:2001"}}` +
		`{"Version":{"addr_from":"127.0.0.1:2001","version":1,"best_height":0}}`

	decoder := json.NewDecoder(strings.NewReader(stream))

	var got []Package
	for {
		var pkg Package
		err := decoder.Decode(&pkg)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, pkg.Validate())
		got = append(got, pkg)
	}

	require.Len(t, got, 2)
	assert.NotNil(t, got[0].GetBlocks)
	assert.NotNil(t, got[1].Version)
}
