package codec

import (
	"fmt"

	"github.com/BaSui01/promptfit/types"
)

// Accounting returns the incremental token total for a layout: the sum of
// per-message costs plus the boundary cost of every adjacent join. This is
// the quantity the fit engine budgets against.
func Accounting(c types.Codec, layout []types.Message) int {
	total := 0
	var prev *types.Message
	for i := range layout {
		total += c.CountBoundaryTokens(prev, layout[i])
		total += c.CountMessageTokens(layout[i])
		prev = &layout[i]
	}
	return total
}

// VerifyAccounting checks the codec correctness contract: the incremental
// accounting of a layout must equal CountTokens of its rendered payload
// exactly. A divergence is a programmer error in the codec, reported as
// CODEC_CONTRACT; the fit engine never compensates for one.
func VerifyAccounting(c types.Codec, layout []types.Message) error {
	incremental := Accounting(c, layout)

	rendered, err := c.Render(layout)
	if err != nil {
		return types.NewError(types.ErrCodecContract, "render failed during verification").WithCause(err)
	}
	ground := c.CountTokens(rendered)

	if incremental != ground {
		return types.NewError(types.ErrCodecContract,
			fmt.Sprintf("incremental accounting %d diverges from rendered count %d over %d messages",
				incremental, ground, len(layout)))
	}
	return nil
}
