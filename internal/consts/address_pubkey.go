package consts

import (
	"cu-bench-sol/internal/types"
)

// 公钥形式的地址常量（types.Pubkey），用于 owner 比对
var (
	SystemProgram types.Pubkey

	// 不可升级 loader：字节码直接存放在 program 账户里
	BPFLoaderDeprecated types.Pubkey
	BPFLoader           types.Pubkey

	// 可升级 loader：program 账户只存 programdata 地址
	BPFLoaderUpgradeable types.Pubkey
)

// init 自动将 base58 字符串地址转换为 types.Pubkey
func init() {
	SystemProgram = types.PubkeyFromBase58(SystemProgramStr)

	BPFLoaderDeprecated = types.PubkeyFromBase58(BPFLoaderDeprecatedStr)
	BPFLoader = types.PubkeyFromBase58(BPFLoaderStr)
	BPFLoaderUpgradeable = types.PubkeyFromBase58(BPFLoaderUpgradeableStr)
}

// IsImmutableLoader 判断 owner 是否为直接存放字节码的 loader
func IsImmutableLoader(owner types.Pubkey) bool {
	return owner == BPFLoader || owner == BPFLoaderDeprecated
}
