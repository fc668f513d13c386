package service

// Pack is one purchasable bundle of like credits. PriceAmount is in minor
// currency units. The catalog only validates recorded purchases; checkout
// sessions and purchase intents are created elsewhere.
type Pack struct {
	Name        string
	LikesAmount int64
	PriceAmount int64
	Currency    string
}

type PackCatalog map[string]Pack

func DefaultPackCatalog() PackCatalog {
	return PackCatalog{
		"pack-starter": {
			Name:        "Starter Pack",
			LikesAmount: 100,
			PriceAmount: 499,
			Currency:    "usd",
		},
		"pack-popular": {
			Name:        "Popular Pack",
			LikesAmount: 500,
			PriceAmount: 1999,
			Currency:    "usd",
		},
		"pack-premium": {
			Name:        "Premium Pack",
			LikesAmount: 1200,
			PriceAmount: 3999,
			Currency:    "usd",
		},
		"pack-mega": {
			Name:        "Mega Pack",
			LikesAmount: 5000,
			PriceAmount: 12999,
			Currency:    "usd",
		},
	}
}

func (c PackCatalog) Lookup(productID string) (Pack, bool) {
	pack, ok := c[productID]
	return pack, ok
}
