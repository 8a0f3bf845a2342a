// Package codec implements the layout <-> payload mapping and the token
// accounting primitives the fit engine budgets with.
//
// The only codec shipped here is TextCodec, a role-tagged transcript
// format. Provider wire codecs (OpenAI, Anthropic) live with their SDK
// integrations; the fit engine depends only on the types.Codec contract.
package codec
