package precomputed

const (
	// MainnetNetwork is the network name used in mainnet block file names.
	MainnetNetwork = "mainnet"

	// MainnetGenesisStateHash is the state hash of the mainnet genesis block.
	MainnetGenesisStateHash StateHash = "3NKeMoncuHab5ScarV5ViyF16cJPT4taWNSaTLS64Dp67wuXigPZ"

	// MainnetGenesisPreviousStateHash is the previous state hash the mainnet genesis block points to.
	MainnetGenesisPreviousStateHash StateHash = "3NLoKn22eMnyQ7rxh5pxB6vBA3XhSAhhrf7akdqS6HbAKD14Dh1d"

	// MainnetGenesisWinner is the block stake winner of the mainnet genesis block.
	MainnetGenesisWinner PublicKey = "B62qiy32p8kAKnny8ZFwoMhYpBppM1DWVCqAPBYNcXnsAHhnfAAuXgg"

	// MainnetGenesisLastVRFOutput is the last VRF output of the mainnet genesis block.
	MainnetGenesisLastVRFOutput = "NfThG1r1GxQuhaGLSJWGxcpv24SudtXG4etB0TnGqwg="

	// TransitionFrontierLength is the number of blocks after which Mina considers a block final (k).
	TransitionFrontierLength uint32 = 290
)

// MainnetGenesisBlock returns the mainnet genesis block. It carries no transactions.
func MainnetGenesisBlock() *Block {
	return &Block{
		StateHash:         MainnetGenesisStateHash,
		PreviousStateHash: MainnetGenesisPreviousStateHash,
		Height:            1,
		GlobalSlot:        0,
		Network:           MainnetNetwork,
		Creator:           MainnetGenesisWinner,
		CoinbaseReceiver:  MainnetGenesisWinner,
		Winner:            MainnetGenesisWinner,
		LastVRFOutput:     MainnetGenesisLastVRFOutput,
	}
}
