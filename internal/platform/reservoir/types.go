package reservoir

import "github.com/guildxyz/tokenbuyer/internal/domain"

// apiTokensResponse mirrors the Reservoir /tokens/v5 payload.
type apiTokensResponse struct {
	Tokens []apiToken `json:"tokens"`
}

type apiToken struct {
	Token struct {
		TokenID string `json:"tokenId"`
	} `json:"token"`
	Market struct {
		FloorAsk struct {
			Price *struct {
				Amount struct {
					Native float64 `json:"native"`
					USD    float64 `json:"usd"`
				} `json:"amount"`
			} `json:"price"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"floorAsk"`
	} `json:"market"`
}

func (t *apiToken) toDomain() domain.NFTListing {
	l := domain.NFTListing{
		TokenID: t.Token.TokenID,
		Source:  t.Market.FloorAsk.Source.Name,
	}
	if p := t.Market.FloorAsk.Price; p != nil {
		l.HasFloorPrice = true
		l.FloorPriceNative = p.Amount.Native
		l.FloorPriceUSD = p.Amount.USD
	}
	return l
}
