package storage

import "quoteScope/internal/model"

// QuoteSink records served quotes.
type QuoteSink interface {
	PutQuotes(quotes []model.QuoteRecord) error
}
