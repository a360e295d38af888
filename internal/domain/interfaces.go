package domain

// TradeValidator admits or rejects a single candidate trade.
// Implementations must be stateless with respect to the trade stream:
// each call sees only the TradeInfo projection it is given.
type TradeValidator interface {
	// Validate returns whether the trade is admissible and, when it is not,
	// a human-readable reason. The reason is empty on acceptance.
	Validate(info TradeInfo) (bool, string)
	// Name identifies the validator in logs and in the startup registry.
	Name() string
}

// TradeExporter writes an ordered trade list to some destination.
type TradeExporter interface {
	Export(trades []Trade) error
}
