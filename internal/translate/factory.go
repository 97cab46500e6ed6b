package translate

import (
	"context"
	"fmt"
	"net/http"
)

// New builds the translator named by provider. "none" yields a nil
// translator, which NewBridge treats as passthrough.
func New(ctx context.Context, provider, url, apiKey string) (Translator, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "libre":
		return NewLibreClient(url, apiKey, &http.Client{}), nil
	case "google":
		client, err := NewGoogleClient(ctx, apiKey, url)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", provider)
	}
}
