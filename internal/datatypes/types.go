package datatypes

// OwnedToken is one SPL token position held by a wallet, with its raw
// (undivided) amount.
type OwnedToken struct {
	TokenAddress string
	Amount       uint64
}
