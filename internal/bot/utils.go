package bot

import (
	"context"
	"regexp"
	"strings"

	"machata/internal/models"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// normalizePhone приводит номер к 11 цифрам с ведущей семеркой.
// Возвращает пустую строку, если номер не разбирается.
func normalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 11 && d[0] == '8':
		return "7" + d[1:]
	case len(d) == 11 && d[0] == '7':
		return d
	case len(d) == 10:
		return "7" + d
	}
	return ""
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.config.IsAdmin(userID)
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	state, err := b.state.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
		return nil
	}
	return state
}

func (b *Bot) setUserState(ctx context.Context, state *models.UserState) {
	if err := b.state.SetUserState(ctx, state); err != nil {
		b.logger.Error().Err(err).Int64("user_id", state.UserID).Msg("Failed to save user state")
	}
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.state.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendHTML(chatID int64, text string) {
	if _, err := b.tgService.SendHTML(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
