// `bayra` main package provides the probability primitives and factor
// algebra for inference over hybrid Bayesian networks: enumerable domains
// and variables, dense enumerable tables, a distribution library, and the
// factor operations (product, sum-out, max-out) the inference drivers in
// the subpackages are built on.
package bayra

const (
	Version     = "0.1.0"
	VersionName = "Kea"
)

func init() {
	SetDefaultConfig()
}
