package chainspec

import "sort"

// Hardfork identifies a protocol ruleset in force at a given block. The zero value,
// HardforkUnknown, is returned for unsupported chain ids.
type Hardfork int

const (
	HardforkUnknown Hardfork = iota
	Frontier
	Homestead
	TangerineWhistle
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	Paris
	Shanghai
)

func (h Hardfork) String() string {
	switch h {
	case Frontier:
		return "Frontier"
	case Homestead:
		return "Homestead"
	case TangerineWhistle:
		return "Tangerine Whistle"
	case SpuriousDragon:
		return "Spurious Dragon"
	case Byzantium:
		return "Byzantium"
	case Constantinople:
		return "Constantinople"
	case Petersburg:
		return "Petersburg"
	case Istanbul:
		return "Istanbul"
	case Berlin:
		return "Berlin"
	case London:
		return "London"
	case Paris:
		return "Paris"
	case Shanghai:
		return "Shanghai"
	default:
		return "Unknown"
	}
}

// activation pairs a hardfork with the block number at which it takes effect.
type activation struct {
	block   uint64
	fork    Hardfork
}

// forkSchedules mirrors the per-chain-id activation tables go-ethereum and its forks (e.g.
// params.MainnetChainConfig, params/mantle.go's per-chain-id upgrade tables) keep, generalized
// here into a simple sorted slice per chain id rather than a fork-specific struct field per chain,
// since this core only needs to answer "which hardfork, if any, is active at block N".
var forkSchedules = map[uint64][]activation{
	1: { // mainnet
		{0, Frontier},
		{1_150_000, Homestead},
		{2_463_000, TangerineWhistle},
		{2_675_000, SpuriousDragon},
		{4_370_000, Byzantium},
		{7_280_000, Constantinople}, // Constantinople/Petersburg same block on mainnet
		{9_069_000, Istanbul},
		{12_244_000, Berlin},
		{12_965_000, London},
		{15_537_394, Paris},
		{17_034_870, Shanghai},
	},
	3: { // Ropsten
		{0, Frontier},
		{0, SpuriousDragon},
		{1_700_000, Byzantium},
		{4_230_000, Constantinople},
		{4_939_394, Istanbul},
		{9_812_189, Berlin},
		{10_499_401, London},
	},
	4: { // Rinkeby
		{0, Frontier},
		{0, SpuriousDragon},
		{1_035_301, Byzantium},
		{3_660_663, Constantinople},
		{5_435_345, Istanbul},
		{8_290_928, Berlin},
		{8_897_988, London},
	},
	5: { // Goerli
		{0, Frontier},
		{0, SpuriousDragon},
		{0, Byzantium},
		{0, Constantinople},
		{1_561_651, Istanbul},
		{4_460_644, Berlin},
		{5_062_605, London},
	},
	42: { // Kovan
		{0, Frontier},
		{0, SpuriousDragon},
		{5_067_000, Byzantium},
		{9_200_000, Constantinople},
		{14_111_141, Istanbul},
		{24_770_900, Berlin},
		{26_741_100, London},
	},
	100: { // xDai/Gnosis
		{0, Frontier},
		{0, SpuriousDragon},
		{0, Byzantium},
		{0, Constantinople},
		{655_875, Istanbul},
		{16_101_500, Berlin},
		{19_040_000, London},
	},
}

var chainNames = map[uint64]string{
	1:   "mainnet",
	3:   "ropsten",
	4:   "rinkeby",
	5:   "goerli",
	42:  "kovan",
	100: "xdai",
}

func init() {
	for chainID, schedule := range forkSchedules {
		// Stable: chains with several hardforks activated at the same block (testnets that
		// launched post-merge-of-forks) list them in chronological order, and Classify's
		// last-activation-at-or-before-block scan depends on that order surviving the sort.
		sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].block < schedule[j].block })
		forkSchedules[chainID] = schedule
	}
}

// Classify returns the hardfork in force at (chainID, blockNumber), or HardforkUnknown and false
// if chainID is not a chain this table knows about. Classify is pure and total on supported chain
// ids, as the spec requires of any classifier implementation.
func Classify(chainID uint64, blockNumber uint64) (Hardfork, bool) {
	schedule, ok := forkSchedules[chainID]
	if !ok {
		return HardforkUnknown, false
	}
	fork := HardforkUnknown
	for _, a := range schedule {
		if a.block > blockNumber {
			break
		}
		fork = a.fork
	}
	return fork, true
}

// ChainName returns the human-readable name of a supported chain id, for error messages.
func ChainName(chainID uint64) (string, bool) {
	name, ok := chainNames[chainID]
	return name, ok
}
