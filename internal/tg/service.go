package tg

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nelasy5/blockmon/internal/chains"
	"github.com/nelasy5/blockmon/internal/names"
	"github.com/nelasy5/blockmon/internal/storage"
	"github.com/nelasy5/blockmon/internal/watch"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Service — операторские команды: ведение watchlist и справочника имён.
type Service struct {
	bot    *tgbot.Bot
	source watch.Source
	names  names.Store
	repo   storage.Repository
	reg    *chains.Registry

	allowed map[int64]struct{} // пустая = разрешены все чаты
}

func NewService(
	b *tgbot.Bot,
	source watch.Source,
	nameStore names.Store,
	repo storage.Repository,
	reg *chains.Registry,
	allowedChatIDs []int64,
) *Service {
	allowed := make(map[int64]struct{}, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = struct{}{}
	}

	s := &Service{
		bot:     b,
		source:  source,
		names:   nameStore,
		repo:    repo,
		reg:     reg,
		allowed: allowed,
	}
	s.registerHandlers()
	return s
}

func (s *Service) registerHandlers() {
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, s.onStart)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/add_address", tgbot.MatchTypePrefix, s.onAddAddress)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/edit_address", tgbot.MatchTypePrefix, s.onEditAddress)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/delete_address", tgbot.MatchTypePrefix, s.onDeleteAddress)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/get_addresses", tgbot.MatchTypeExact, s.onGetAddresses)
	s.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/recent", tgbot.MatchTypeExact, s.onRecent)
}

// InitCommands публикует список команд в меню бота.
func (s *Service) InitCommands(ctx context.Context) error {
	_, err := s.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Start the bot"},
			{Command: "add_address", Description: "Add address to the monitoring list"},
			{Command: "edit_address", Description: "Edit address name"},
			{Command: "delete_address", Description: "Remove address from the monitoring list"},
			{Command: "get_addresses", Description: "Get list of active addresses"},
			{Command: "recent", Description: "Show recently delivered notifications"},
		},
	})
	return err
}

func (s *Service) allowedChat(chatID int64) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[chatID]
	return ok
}

// chat возвращает chat id или 0, если апдейт не годится для обработки.
func (s *Service) chat(upd *models.Update) int64 {
	if upd.Message == nil {
		return 0
	}
	chatID := upd.Message.Chat.ID
	if !s.allowedChat(chatID) {
		log.Printf("[tg] ignored command from chat %d", chatID)
		return 0
	}
	return chatID
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	_, err := s.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.Printf("[tg] reply to %d: %v", chatID, err)
	}
}

func (s *Service) onStart(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}
	s.reply(ctx, chatID, "Welcome! Use /add_address <address> <name> to add an address to monitor.")
}

func (s *Service) onAddAddress(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}

	address, name := SplitAddressArg(CommandArgs(upd.Message.Text))
	if !IsEthAddress(address) {
		s.reply(ctx, chatID, "Please provide an Ethereum address. Usage: /add_address 0x... <name>")
		return
	}

	if err := s.source.AddAddress(ctx, address); err != nil {
		log.Printf("[tg] add address %s: %v", address, err)
		s.reply(ctx, chatID, fmt.Sprintf("Address %s cannot be added to the monitoring list, check logs for more information.", address))
		return
	}

	if name != "" {
		if err := s.names.Set(ctx, address, name); err != nil {
			log.Printf("[tg] set name for %s: %v", address, err)
			s.reply(ctx, chatID, fmt.Sprintf("Address %s added, but the name could not be saved.", address))
			return
		}
	}

	s.reply(ctx, chatID, fmt.Sprintf("Address %s has been added to the monitoring list.", address))
}

func (s *Service) onEditAddress(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}

	address, name := SplitAddressArg(CommandArgs(upd.Message.Text))
	if !IsEthAddress(address) || name == "" {
		s.reply(ctx, chatID, "Usage: /edit_address 0x... <name>")
		return
	}

	if err := s.names.Set(ctx, address, name); err != nil {
		log.Printf("[tg] set name for %s: %v", address, err)
		s.reply(ctx, chatID, fmt.Sprintf("Cannot set name for address %s.", address))
		return
	}

	s.reply(ctx, chatID, fmt.Sprintf("Address %s name is changed to %s.", address, name))
}

func (s *Service) onDeleteAddress(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}

	address, _ := SplitAddressArg(CommandArgs(upd.Message.Text))
	if !IsEthAddress(address) {
		s.reply(ctx, chatID, "Please provide an Ethereum address. Usage: /delete_address 0x...")
		return
	}

	if err := s.source.RemoveAddress(ctx, address); err != nil {
		log.Printf("[tg] remove address %s: %v", address, err)
		s.reply(ctx, chatID, fmt.Sprintf("Address %s cannot be removed from the monitoring list, check logs for more information.", address))
		return
	}

	s.reply(ctx, chatID, fmt.Sprintf("Address %s has been removed from the monitoring list.", address))
}

func (s *Service) onGetAddresses(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}

	addresses, err := s.source.ListAddresses(ctx)
	if err != nil {
		log.Printf("[tg] list addresses: %v", err)
		s.reply(ctx, chatID, "Could not fetch active addresses, check logs for more information.")
		return
	}

	if len(addresses) == 0 {
		s.reply(ctx, chatID, "No active addresses found")
		return
	}

	lines := make([]string, 0, len(addresses)+1)
	lines = append(lines, "Active addresses:")
	for _, a := range addresses {
		// имя добираем best effort, без него показываем checksum-адрес
		name, err := s.names.Get(ctx, a.Lowercase)
		if err != nil {
			log.Printf("[tg] name lookup %s: %v", a.Lowercase, err)
			name = ""
		}
		if name != "" {
			lines = append(lines, name+": "+a.Checksum)
		} else {
			lines = append(lines, a.Checksum)
		}
	}

	s.reply(ctx, chatID, strings.Join(lines, "\n"))
}

func (s *Service) onRecent(ctx context.Context, b *tgbot.Bot, upd *models.Update) {
	chatID := s.chat(upd)
	if chatID == 0 {
		return
	}

	items, err := s.repo.ListRecent(ctx, 10)
	if err != nil {
		log.Printf("[tg] list recent: %v", err)
		s.reply(ctx, chatID, "Could not read the notification journal.")
		return
	}

	if len(items) == 0 {
		s.reply(ctx, chatID, "No notifications delivered yet.")
		return
	}

	s.reply(ctx, chatID, FormatRecent(s.reg, items))
}
