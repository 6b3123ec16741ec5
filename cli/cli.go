package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/kunalsinghdadhwal/socratix/blockchain"
	"github.com/kunalsinghdadhwal/socratix/network"
	"github.com/kunalsinghdadhwal/socratix/wallet"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 25/02/2026
 * Time: 09:31
 */

type CommandLine struct{}

func (cli *CommandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println(" getbalance -address ADDRESS - get the balance of an address")
	fmt.Println(" createblockchain -address ADDRESS - create a blockchain")
	fmt.Println(" printchain - Print the blocks in the chain")
	fmt.Println(" send -from FROM -to TO -amount AMOUNT -mine - Send coins from one address to another. When the -mine flag is set, mine off of this node")
	fmt.Println(" createwallet - Create a new wallet")
	fmt.Println(" listaddresses - Lists the addresses in our wallet file")
	fmt.Println(" reindexutxo - Rebuilds the UTXO set")
	fmt.Println(" startnode -miner ADDRESS - Start a node on NODE_ADDRESS. -miner enables mining")
}

// validateArgs bails out with usage when no command was given
func (cli *CommandLine) validateArgs() {
	if len(os.Args) < 2 {
		cli.printUsage()
		runtime.Goexit() // unwind instead of os.Exit so deferred DB closes still run
	}
}

// fatal reports a core error to the user and unwinds the goroutine, letting
// deferred database closes run before the process exits.
func fatal(err error) {
	fmt.Println("Error:", err)
	runtime.Goexit()
}

func (cli *CommandLine) startNode(minerAddress string) {
	cfg := network.NewConfig()
	fmt.Printf("Starting node %s\n", cfg.GetNodeAddr())

	if len(minerAddress) > 0 {
		if !wallet.ValidateAddress(minerAddress) {
			fatal(wallet.ErrInvalidAddress)
		}
		fmt.Println("Mining is on. Address to receive rewards:", minerAddress)
		cfg.SetMiningAddr(minerAddress)
	}

	chain, err := blockchain.ContinueBlockChain()
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)

	server := network.NewServer(chain, cfg)
	if err := server.Run(); err != nil {
		fatal(err)
	}
}

func (cli *CommandLine) printChain() {
	chain, err := blockchain.ContinueBlockChain()
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)

	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			fatal(err)
		}

		fmt.Printf("Prev. hash: %s\n", block.PrevBlockHash)
		fmt.Printf("Hash: %s\n", block.Hash)
		fmt.Printf("Height: %d\n", block.Height)
		pow := blockchain.NewProof(block)
		fmt.Printf("PoW: %s\n", strconv.FormatBool(pow.Validate()))
		for _, tx := range block.Transactions {
			fmt.Printf("Transaction: %s\n", tx)
		}
		fmt.Println()

		if block.IsGenesis() {
			break
		}
	}
}

func (cli *CommandLine) createBlockChain(address string) {
	if !wallet.ValidateAddress(address) {
		fatal(wallet.ErrInvalidAddress)
	}

	chain, err := blockchain.CreateBlockChain(address)
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)

	utxoSet := blockchain.UTXOSet{Blockchain: chain}
	if err := utxoSet.Reindex(); err != nil {
		fatal(err)
	}

	fmt.Println("Finished creating blockchain!")
}

func (cli *CommandLine) getBalance(address string) {
	pubKeyHash, err := wallet.PubKeyHashFromAddress(address)
	if err != nil {
		fatal(err)
	}

	chain, err := blockchain.ContinueBlockChain()
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)

	utxoSet := blockchain.UTXOSet{Blockchain: chain}
	utxos, err := utxoSet.FindUTXO(pubKeyHash)
	if err != nil {
		fatal(err)
	}

	balance := 0
	for _, out := range utxos {
		balance += out.Value
	}

	fmt.Printf("Balance of %s: %d\n", address, balance)
}

func (cli *CommandLine) send(from, to string, amount int, mineNow bool) {
	if !wallet.ValidateAddress(from) || !wallet.ValidateAddress(to) {
		fatal(wallet.ErrInvalidAddress)
	}

	chain, err := blockchain.ContinueBlockChain()
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)
	utxoSet := blockchain.UTXOSet{Blockchain: chain}

	wallets, err := wallet.CreateWallets()
	if err != nil {
		fatal(err)
	}
	w := wallets.GetWallet(from)
	if w == nil {
		fatal(fmt.Errorf("wallet not found for address %s", from))
	}

	tx, err := blockchain.NewTransaction(w, from, to, amount, &utxoSet)
	if err != nil {
		fatal(err)
	}

	if mineNow {
		cbTx, err := blockchain.CoinbaseTx(from)
		if err != nil {
			fatal(err)
		}
		block, err := chain.MineBlock([]*blockchain.Transaction{cbTx, tx})
		if err != nil {
			fatal(err)
		}
		if err := utxoSet.Update(block); err != nil {
			fatal(err)
		}
	} else {
		if err := network.SendTx(network.NewConfig(), network.CentralNode, tx); err != nil {
			fatal(err)
		}
		fmt.Println("Sent tx")
	}

	fmt.Println("Success!")
}

func (cli *CommandLine) reindexUTXO() {
	chain, err := blockchain.ContinueBlockChain()
	if err != nil {
		fatal(err)
	}
	defer closeDatabase(chain.Database)

	utxoSet := blockchain.UTXOSet{Blockchain: chain}
	if err := utxoSet.Reindex(); err != nil {
		fatal(err)
	}

	count, err := utxoSet.CountTransactions()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Done! There are %d transactions in the UTXO set.\n", count)
}

func (cli *CommandLine) listAddresses() {
	wallets, err := wallet.CreateWallets()
	if err != nil {
		fatal(err)
	}
	for _, address := range wallets.GetAllAddresses() {
		fmt.Println(address)
	}
}

func (cli *CommandLine) createWallet() {
	wallets, err := wallet.CreateWallets()
	if err != nil {
		fatal(err)
	}
	address, err := wallets.AddWallet()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("New wallet created with address: %s\n", address)
}

func closeDatabase(db *badger.DB) {
	if err := db.Close(); err != nil {
		fmt.Println(err)
	}
}

func (cli *CommandLine) Run() {
	cli.validateArgs()

	getBalanceCMD := flag.NewFlagSet("getbalance", flag.ExitOnError)
	createBlockChainCMD := flag.NewFlagSet("createblockchain", flag.ExitOnError)
	sendCMD := flag.NewFlagSet("send", flag.ExitOnError)
	printChainCMD := flag.NewFlagSet("printchain", flag.ExitOnError)
	createWalletCMD := flag.NewFlagSet("createwallet", flag.ExitOnError)
	listAddressesCMD := flag.NewFlagSet("listaddresses", flag.ExitOnError)
	reindexUTXOCMD := flag.NewFlagSet("reindexutxo", flag.ExitOnError)
	startNodeCMD := flag.NewFlagSet("startnode", flag.ExitOnError)

	getBalanceAddress := getBalanceCMD.String("address", "", "Wallet address to get the balance of")
	createBlockChainAddress := createBlockChainCMD.String("address", "", "Wallet address to create the blockchain for")
	sendFrom := sendCMD.String("from", "", "Source wallet address")
	sendTo := sendCMD.String("to", "", "Destination wallet address")
	sendAmount := sendCMD.Int("amount", 0, "Amount to send")
	sendMine := sendCMD.Bool("mine", false, "Mine immediately on the same node")
	startNodeMiner := startNodeCMD.String("miner", "", "Enable mining mode and send reward to ADDRESS")

	var err error
	switch os.Args[1] {
	case "getbalance":
		err = getBalanceCMD.Parse(os.Args[2:])
	case "createblockchain":
		err = createBlockChainCMD.Parse(os.Args[2:])
	case "send":
		err = sendCMD.Parse(os.Args[2:])
	case "printchain":
		err = printChainCMD.Parse(os.Args[2:])
	case "createwallet":
		err = createWalletCMD.Parse(os.Args[2:])
	case "listaddresses":
		err = listAddressesCMD.Parse(os.Args[2:])
	case "reindexutxo":
		err = reindexUTXOCMD.Parse(os.Args[2:])
	case "startnode":
		err = startNodeCMD.Parse(os.Args[2:])
	default:
		cli.printUsage()
		runtime.Goexit()
	}
	if err != nil {
		log.Panic(err)
	}

	if getBalanceCMD.Parsed() {
		if *getBalanceAddress == "" {
			getBalanceCMD.Usage()
			runtime.Goexit()
		}
		cli.getBalance(*getBalanceAddress)
	}

	if createBlockChainCMD.Parsed() {
		if *createBlockChainAddress == "" {
			createBlockChainCMD.Usage()
			runtime.Goexit()
		}
		cli.createBlockChain(*createBlockChainAddress)
	}

	if printChainCMD.Parsed() {
		cli.printChain()
	}

	if createWalletCMD.Parsed() {
		cli.createWallet()
	}

	if listAddressesCMD.Parsed() {
		cli.listAddresses()
	}

	if reindexUTXOCMD.Parsed() {
		cli.reindexUTXO()
	}

	if sendCMD.Parsed() {
		if *sendFrom == "" || *sendTo == "" || *sendAmount <= 0 {
			sendCMD.Usage()
			runtime.Goexit()
		}
		cli.send(*sendFrom, *sendTo, *sendAmount, *sendMine)
	}

	if startNodeCMD.Parsed() {
		cli.startNode(*startNodeMiner)
	}
}
