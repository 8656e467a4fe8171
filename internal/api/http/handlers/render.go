package handlers

import (
	"fmt"
	"strings"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	"github.com/spec-kit/p2p-exchange-bot/internal/telegram"
)

// RenderOutcome maps a core outcome to the webhook reply message. This is
// the presentation adapter: all text and keyboard layout lives here, the
// core knows nothing about chat formatting.
func RenderOutcome(chatID int64, outcome *domain.Outcome) telegram.SendMessage {
	msg := telegram.SendMessage{
		Method:    "sendMessage",
		ChatID:    chatID,
		ParseMode: "HTML",
	}

	switch outcome.Kind {
	case domain.OutcomeMainMenu:
		msg.Text = fmt.Sprintf("👋 <b>Welcome to P2P Exchange Bot!</b>\n\n"+
			"Safe virtual-currency trading with escrow protection.\n\n"+
			"Your current mode: <b>%s</b>\n\nChoose an action:", roleText(outcome.User.Role))
		msg.ReplyMarkup = mainMenuKeyboard()

	case domain.OutcomeProfile:
		msg.Text = renderProfile(outcome.User)
		msg.ReplyMarkup = profileKeyboard(outcome.User.Role)

	case domain.OutcomeBalance:
		msg.Text = fmt.Sprintf("💰 <b>Your balance</b>\n\nAvailable: <b>%s</b>\n\nChoose an action:",
			outcome.User.Balance.StringFixed(2))
		msg.ReplyMarkup = telegram.Keyboard(
			telegram.Row(telegram.Btn("➕ Deposit", "deposit"), telegram.Btn("➖ Withdraw", "withdraw")),
			menuRow(),
		)

	case domain.OutcomeOffers:
		text, markup := renderOffers(outcome.Offers)
		msg.Text = text
		msg.ReplyMarkup = markup

	case domain.OutcomeSellForm:
		msg.Text = "📝 <b>Create a sell listing</b>\n\n" +
			"Send the details as:\n<code>price min max currency</code>\n\n" +
			"Example: <code>95.50 1000 50000 USDT</code>"
		msg.ReplyMarkup = telegram.Keyboard(menuRow())

	case domain.OutcomeOfferCreated:
		offer := outcome.Offer
		msg.Text = fmt.Sprintf("✅ <b>Listing created!</b>\n\n"+
			"💵 Price: %s\n📊 Limits: %s - %s\n💎 Currency: %s\n\n"+
			"Your listing is now visible to buyers.",
			offer.Price.StringFixed(2), offer.MinAmount.StringFixed(0), offer.MaxAmount.StringFixed(0), offer.Currency)
		msg.ReplyMarkup = telegram.Keyboard(menuRow())

	case domain.OutcomeDeals:
		text, markup := renderDeals(outcome.Deals)
		msg.Text = text
		msg.ReplyMarkup = markup

	case domain.OutcomeDealCreated:
		deal := outcome.Deal
		msg.Text = fmt.Sprintf("✅ <b>Deal created!</b>\n\n"+
			"💰 Amount: %s\n💵 Price: %s\n🔒 Funds are in escrow\n\n"+
			"Wait for the seller's confirmation.",
			deal.Amount.StringFixed(0), deal.Price.StringFixed(2))
		msg.ReplyMarkup = dealsMenuKeyboard()

	case domain.OutcomeDealCompleted:
		msg.Text = "✅ Deal completed successfully!"
		msg.ReplyMarkup = dealsMenuKeyboard()

	case domain.OutcomeDisputeOpened:
		msg.Text = "⚠️ Dispute opened. An administrator will contact you."
		msg.ReplyMarkup = dealsMenuKeyboard()

	case domain.OutcomeRejected:
		msg.Text = "⚠️ " + outcome.Rejection.Message
		msg.ReplyMarkup = telegram.Keyboard(menuRow())

	default:
		msg.Text = "ℹ️ Choose an action:"
		msg.ReplyMarkup = mainMenuKeyboard()
	}

	return msg
}

func renderProfile(user *domain.User) string {
	return fmt.Sprintf("👤 <b>Your profile</b>\n\n"+
		"<b>Mode:</b> %s\n\n"+
		"💰 <b>Balance:</b> %s\n\n"+
		"📊 <b>Statistics:</b>\n"+
		"• Bought: %s\n"+
		"• Sold: %s\n"+
		"• Deals completed: %d\n"+
		"• Rating: %s (%s)",
		roleText(user.Role),
		user.Balance.StringFixed(2),
		user.TotalBought.StringFixed(2),
		user.TotalSold.StringFixed(2),
		user.CompletedDeals,
		stars(user),
		user.Rating.StringFixed(1))
}

func renderOffers(listings []domain.OfferListing) (string, *telegram.InlineKeyboardMarkup) {
	if len(listings) == 0 {
		return "📭 No offers available", telegram.Keyboard(menuRow())
	}

	var b strings.Builder
	b.WriteString("💎 <b>Best offers</b>\n\n")
	rows := make([][]telegram.InlineKeyboardButton, 0, len(listings)+1)
	for _, listing := range listings {
		fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n👤 %s\n⭐ %s • %d deals\n💵 Price: %s\n📊 Limits: %s - %s\n💎 %s\n\n",
			listing.SellerName,
			listing.SellerRating.StringFixed(1),
			listing.SellerCompletedDeals,
			listing.Price.StringFixed(2),
			listing.MinAmount.StringFixed(0),
			listing.MaxAmount.StringFixed(0),
			listing.Currency)
		rows = append(rows, telegram.Row(
			telegram.Btn(fmt.Sprintf("Buy from %s", listing.SellerName), fmt.Sprintf("buy_%d", listing.ID)),
		))
	}
	rows = append(rows, menuRow())
	return b.String(), telegram.Keyboard(rows...)
}

func renderDeals(deals []domain.DealView) (string, *telegram.InlineKeyboardMarkup) {
	if len(deals) == 0 {
		return "📭 You have no deals yet", telegram.Keyboard(menuRow())
	}

	var b strings.Builder
	b.WriteString("📋 <b>Your deals</b>\n\n")
	rows := make([][]telegram.InlineKeyboardButton, 0, len(deals)+1)
	for _, deal := range deals {
		fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n%s Deal #%d\n💵 %s • %s\n👤 %s ↔ %s\n📅 %s\nStatus: %s\n\n",
			statusEmoji(deal.Status),
			deal.ID,
			deal.Amount.StringFixed(0),
			deal.Currency,
			deal.BuyerName,
			deal.SellerName,
			deal.CreatedAt.Format("02.01.2006 15:04"),
			statusText(deal.Status))
		if deal.Status == domain.DealStatusEscrow {
			rows = append(rows, telegram.Row(
				telegram.Btn(fmt.Sprintf("✅ Complete #%d", deal.ID), fmt.Sprintf("complete_%d", deal.ID)),
				telegram.Btn(fmt.Sprintf("⚠️ Dispute #%d", deal.ID), fmt.Sprintf("dispute_%d", deal.ID)),
			))
		}
	}
	rows = append(rows, menuRow())
	return b.String(), telegram.Keyboard(rows...)
}

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Btn("👤 Profile", "profile")),
		telegram.Row(telegram.Btn("🛒 Buy", "buy"), telegram.Btn("💼 Sell", "sell")),
		telegram.Row(telegram.Btn("📋 Deals", "deals"), telegram.Btn("💰 Balance", "balance")),
	)
}

func profileKeyboard(role domain.Role) *telegram.InlineKeyboardMarkup {
	switchText := "💼 Become a seller"
	if role == domain.RoleSeller {
		switchText = "🛒 Become a buyer"
	}
	return telegram.Keyboard(
		telegram.Row(telegram.Btn(switchText, "switch_"+string(role.Opposite()))),
		telegram.Row(telegram.Btn("💰 Balance", "balance")),
		menuRow(),
	)
}

func dealsMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(telegram.Btn("📋 My deals", "deals")),
		menuRow(),
	)
}

func menuRow() []telegram.InlineKeyboardButton {
	return telegram.Row(telegram.Btn("🏠 Main menu", "menu"))
}

func roleText(role domain.Role) string {
	if role == domain.RoleSeller {
		return "💼 Seller"
	}
	return "🛒 Buyer"
}

func stars(user *domain.User) string {
	n := int(user.Rating.IntPart())
	if n <= 0 {
		return "—"
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("⭐", n)
}

func statusEmoji(status domain.DealStatus) string {
	switch status {
	case domain.DealStatusPending:
		return "⏳"
	case domain.DealStatusEscrow:
		return "🔒"
	case domain.DealStatusCompleted:
		return "✅"
	case domain.DealStatusCancelled:
		return "❌"
	case domain.DealStatusDispute:
		return "⚠️"
	}
	return "•"
}

func statusText(status domain.DealStatus) string {
	switch status {
	case domain.DealStatusPending:
		return "Waiting"
	case domain.DealStatusEscrow:
		return "In escrow"
	case domain.DealStatusCompleted:
		return "Completed"
	case domain.DealStatusCancelled:
		return "Cancelled"
	case domain.DealStatusDispute:
		return "Dispute"
	}
	return string(status)
}
