package domain

const (
	// AddressBatchSize is the number of addresses queried together during an
	// address scan.
	AddressBatchSize = 10
	// NoteBatchSize is the number of owned notes proven together during a
	// note scan.
	NoteBatchSize = 10

	// DefaultScanAddressLimit bounds the addresses refreshed by a scan that
	// does not request all of them.
	DefaultScanAddressLimit = 50
)

// Names of the commands a plan can be made of.
const (
	CommandVaultOnboardNative        = "vault-onboard-native"
	CommandVaultOnboardERC20         = "vault-onboard-erc20"
	CommandVaultDepositToAggregator  = "vault-deposit-to-aggregator"
	CommandCsucDepositToAggregator   = "csuc-deposit-to-aggregator"
	CommandAggregatorAggregate       = "aggregator-aggregate"
	CommandAggregatorWithdrawToVault = "aggregator-withdraw-to-vault"
	CommandVaultWithdrawToEOA        = "vault-withdraw-to-eoa"
	CommandExitBridge                = "exit-bridge"
	CommandExitBridgeNative          = "exit-bridge-native"
)
