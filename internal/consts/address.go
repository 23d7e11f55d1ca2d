package consts

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	SystemProgramStr = "11111111111111111111111111111111"

	// Loaders
	BPFLoaderDeprecatedStr  = "BPFLoader1111111111111111111111111111111111"
	BPFLoaderStr            = "BPFLoader2111111111111111111111111111111111"
	BPFLoaderUpgradeableStr = "BPFLoaderUpgradeab1e11111111111111111111111"
)
