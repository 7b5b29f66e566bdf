package zerox

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// apiQuoteResponse mirrors the fields of the 0x /swap/v1/quote payload the
// pricing service consumes. Price fields stay strings until parsed so no
// precision is lost on the wire.
type apiQuoteResponse struct {
	Price              string      `json:"price"`
	GuaranteedPrice    string      `json:"guaranteedPrice"`
	SellTokenToEthRate string      `json:"sellTokenToEthRate"`
	Sources            []apiSource `json:"sources"`
	Orders             []apiOrder  `json:"orders"`
}

type apiSource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

type apiOrder struct {
	Source      string      `json:"source"`
	TakerAmount string      `json:"takerAmount"`
	FillData    apiFillData `json:"fillData"`
}

type apiFillData struct {
	Path             string   `json:"path"`
	UniswapPath      string   `json:"uniswapPath"`
	TokenAddressPath []string `json:"tokenAddressPath"`
}

// apiErrorResponse is the 0x error envelope.
type apiErrorResponse struct {
	Code             int    `json:"code"`
	Reason           string `json:"reason"`
	ValidationErrors []struct {
		Field       string `json:"field"`
		Reason      string `json:"reason"`
		Description string `json:"description"`
	} `json:"validationErrors"`
}

// toDomain maps the API payload to the domain swap quote.
func (r *apiQuoteResponse) toDomain() (*domain.SwapQuote, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, err
	}
	guaranteed, err := decimal.NewFromString(r.GuaranteedPrice)
	if err != nil {
		return nil, err
	}
	rate, err := strconv.ParseFloat(r.SellTokenToEthRate, 64)
	if err != nil {
		return nil, err
	}

	q := &domain.SwapQuote{
		Price:              price,
		GuaranteedPrice:    guaranteed,
		SellTokenToEthRate: rate,
	}
	for _, s := range r.Sources {
		q.Sources = append(q.Sources, domain.SourceFill{
			Name:       s.Name,
			Proportion: s.Proportion,
		})
	}
	for _, o := range r.Orders {
		q.Orders = append(q.Orders, domain.SwapOrder{
			Source:      o.Source,
			TakerAmount: o.TakerAmount,
			FillData: domain.FillData{
				Path:             o.FillData.Path,
				UniswapPath:      o.FillData.UniswapPath,
				TokenAddressPath: o.FillData.TokenAddressPath,
			},
		})
	}
	return q, nil
}
