package booking

import (
	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/queries"
)

// Register wires every booking command and query onto the buses.
func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, l *ledger.Ledger) {
	commands.RegisterHandler(cmds, createBookingKey, &CreateBookingHandler{Ledger: l})
	commands.RegisterHandler(cmds, confirmPaymentKey, &ConfirmPaymentHandler{Ledger: l})
	commands.RegisterHandler(cmds, approveBookingKey, &ApproveBookingHandler{Ledger: l})
	commands.RegisterHandler(cmds, cancelBookingKey, &CancelBookingHandler{Ledger: l})
	commands.RegisterHandler(cmds, rejectBookingKey, &RejectBookingHandler{Ledger: l})
	commands.RegisterHandler(cmds, paymentAuthorizedKey, &PaymentAuthorizedHandler{Ledger: l})
	commands.RegisterHandler(cmds, paymentFailedKey, &PaymentFailedHandler{Ledger: l})

	queries.RegisterHandler(qs, getBookingKey, &GetBookingHandler{Ledger: l})
	queries.RegisterHandler(qs, previewRefundKey, &PreviewRefundHandler{Ledger: l})
}
