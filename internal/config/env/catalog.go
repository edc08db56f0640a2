package env

import (
	"fmt"
	"os"
	"strings"

	"xbit_backend/internal/config"
	"xbit_backend/internal/model"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Networks     []config.Network         `yaml:"networks"`
	Prices       map[string]string        `yaml:"prices"`
	QuoteSymbols map[string]string        `yaml:"quote_symbols"`
	Tables       []model.ProbabilityTable `yaml:"tables"`
}

type catalogConfig struct {
	networks     []config.Network
	tables       []model.ProbabilityTable
	prices       map[string]decimal.Decimal
	quoteSymbols map[string]string
}

// NewCatalogConfigFromYAML Загружает сети, таблицы и цены по умолчанию
func NewCatalogConfigFromYAML(path string) (config.CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (config.CatalogConfig, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("catalog: no networks")
	}
	seen := make(map[int64]struct{}, len(file.Networks))
	for i, n := range file.Networks {
		if n.ChainID == 0 || n.RPCURL == "" {
			return nil, fmt.Errorf("catalog: network %d: chain_id and rpc_url are required", i)
		}
		if _, dup := seen[n.ChainID]; dup {
			return nil, fmt.Errorf("catalog: duplicate chain_id %d", n.ChainID)
		}
		seen[n.ChainID] = struct{}{}

		// Символы активов в нижнем регистре
		tokens := make(map[string]config.Token, len(n.Tokens))
		for sym, tok := range n.Tokens {
			tokens[strings.ToLower(sym)] = tok
		}
		file.Networks[i].Tokens = tokens
	}

	prices := make(map[string]decimal.Decimal, len(file.Prices))
	for asset, raw := range file.Prices {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog: price of %s: %w", asset, err)
		}
		prices[strings.ToLower(asset)] = p
	}

	for i := range file.Tables {
		file.Tables[i].OutputAsset = strings.ToLower(file.Tables[i].OutputAsset)
	}

	return &catalogConfig{
		networks:     file.Networks,
		tables:       file.Tables,
		prices:       prices,
		quoteSymbols: file.QuoteSymbols,
	}, nil
}

func (c *catalogConfig) Networks() []config.Network {
	return c.networks
}

func (c *catalogConfig) Tables() []model.ProbabilityTable {
	return c.tables
}

func (c *catalogConfig) DefaultPrices() map[string]decimal.Decimal {
	return c.prices
}

func (c *catalogConfig) QuoteSymbols() map[string]string {
	return c.quoteSymbols
}
