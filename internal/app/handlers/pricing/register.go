package pricing

import (
	"log/slog"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/queries"
	"vendorhub/internal/app/quoting"
)

func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, quoter *quoting.Quoter, logger *slog.Logger) {
	queries.RegisterHandler(qs, quotePriceKey, &QuotePriceHandler{Quoter: quoter})
	commands.RegisterHandler(cmds, appendConfigKey, &AppendPricingConfigHandler{
		Services: quoter.Services,
		Configs:  quoter.Configs,
		Logger:   logger,
		Now:      quoter.Now,
	})
}
