package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"windreseller/internal/config"
	"windreseller/internal/models"
	"windreseller/internal/pkg/secrets"
	"windreseller/internal/pkg/telegram"
	"windreseller/internal/pkg/totp"
	"windreseller/internal/pkg/utils"
	"windreseller/internal/repository"
	"windreseller/internal/service"
)

// Bot wraps the telebot instance and handlers.
type Bot struct {
	tb         *tele.Bot
	webhook    *tele.Webhook
	useWebhook bool
	cfg        *config.Config
	repos      *BotRepos
	svc        *service.Service
	sealer     *secrets.Sealer
	keyboard   *KeyboardBuilder
	botAPI     *telegram.BotAPI
	logger     *zap.Logger
}

// BotRepos bundles all repositories needed by bot handlers.
type BotRepos struct {
	User    *repository.UserRepository
	Order   *repository.OrderRepository
	Seat    *repository.SeatRepository
	Wallet  *repository.WalletRepository
	Card    *repository.CardRepository
	Setting *repository.SettingRepository
}

// New creates and configures a new Bot instance.
func New(cfg *config.Config, repos *BotRepos, svc *service.Service, sealer *secrets.Sealer, botAPI *telegram.BotAPI, logger *zap.Logger) (*Bot, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Bot.UpdateMode))
	if mode == "" {
		mode = "auto"
	}

	useWebhook := true
	switch mode {
	case "polling":
		useWebhook = false
	case "webhook":
		useWebhook = true
	default: // auto
		useWebhook = strings.TrimSpace(cfg.Bot.WebhookURL) != ""
	}

	var poller tele.Poller
	var webhook *tele.Webhook
	if useWebhook {
		if strings.TrimSpace(cfg.Bot.WebhookURL) == "" {
			return nil, fmt.Errorf("BOT_WEBHOOK_URL is required when BOT_UPDATE_MODE=webhook")
		}
		webhook = &tele.Webhook{
			Listen:   "", // Empty: we mount on Echo instead of telebot's own server
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
		poller = webhook
	} else {
		poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: poller,
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}

	b := &Bot{
		tb:         tb,
		webhook:    webhook,
		useWebhook: useWebhook,
		cfg:        cfg,
		repos:      repos,
		svc:        svc,
		sealer:     sealer,
		keyboard:   NewKeyboardBuilder(),
		botAPI:     botAPI,
		logger:     logger,
	}

	b.registerHandlers()

	return b, nil
}

// WebhookHandler returns the webhook handler for mounting on Echo.
// Returns nil when running in long-polling mode.
func (b *Bot) WebhookHandler() http.Handler {
	return b.webhook
}

// Start begins polling/webhook processing.
func (b *Bot) Start() {
	if b.useWebhook {
		b.logger.Info("Starting Telegram bot", zap.String("mode", "webhook"), zap.String("webhook_url", b.cfg.Bot.WebhookURL))
	} else {
		// Long polling requires webhook to be removed first.
		if err := b.tb.RemoveWebhook(true); err != nil {
			b.logger.Warn("Failed to remove webhook before long polling", zap.Error(err))
		}
		b.logger.Info("Starting Telegram bot", zap.String("mode", "polling"))
	}
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// NotifyOperator delivers an operator alert to the report channel, or
// to the admin directly when no channel is configured.
func (b *Bot) NotifyOperator(text string) {
	target := b.cfg.Bot.ReportChannel
	if target == 0 {
		target = b.cfg.Bot.AdminID
	}
	if target == 0 {
		return
	}
	if _, err := b.botAPI.SendMessage(target, "🚨 "+text, nil); err != nil {
		b.logger.Error("Failed to deliver operator alert", zap.Error(err))
	}
}

// registerHandlers sets up all bot message and callback handlers.
func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/stats", b.handleStats)
	b.tb.Handle("/broadcast", b.handleBroadcast)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
	b.tb.Handle(tele.OnPhoto, b.handlePhoto)
}

// ── /start ────────────────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	user, err := b.repos.User.FindByTgID(sender.ID)
	if err == nil {
		// late referral link: only binds when no referrer is set yet
		if payload := strings.TrimSpace(c.Message().Payload); strings.HasPrefix(payload, "ref_") && user.Referrer == nil {
			if refTgID, err := strconv.ParseInt(strings.TrimPrefix(payload, "ref_"), 10, 64); err == nil {
				if referrer, err := b.repos.User.FindByTgID(refTgID); err == nil {
					_ = b.repos.User.SetReferrer(user.ID, referrer.ID)
				}
			}
		}
	} else {
		user = &models.User{
			TgID:      sender.ID,
			FirstName: sender.FirstName,
			Username:  sender.Username,
			IsAdmin:   sender.ID == b.cfg.Bot.AdminID,
		}

		payload := strings.TrimSpace(c.Message().Payload)
		switch {
		case strings.HasPrefix(payload, "utm_"):
			keyword := strings.TrimPrefix(payload, "utm_")
			if keyword != "" && len(keyword) <= 100 {
				user.UTM = keyword
				if err := b.svc.TrackStart(ctx, keyword); err != nil {
					b.logger.Warn("Failed to track campaign start", zap.String("keyword", keyword), zap.Error(err))
				}
			}
		case strings.HasPrefix(payload, "ref_"):
			if refTgID, err := strconv.ParseInt(strings.TrimPrefix(payload, "ref_"), 10, 64); err == nil {
				if referrer, err := b.repos.User.FindByTgID(refTgID); err == nil {
					user.Referrer = &referrer.ID
				}
			}
		}

		if err := b.repos.User.CreateWithWallet(user); err != nil {
			b.logger.Error("Failed to register user", zap.Int64("tg_id", sender.ID), zap.Error(err))
			return c.Send("خطایی رخ داد، لطفاً دوباره تلاش کنید.")
		}
	}

	if joined, channels := b.forceJoinOK(sender.ID); !joined {
		return c.Send("برای استفاده از ربات ابتدا در کانال‌های زیر عضو شوید:", b.keyboard.JoinKeyboard(channels))
	}

	return c.Send(
		fmt.Sprintf("سلام %s 👋\nبه ربات فروش اشتراک خوش آمدید.", sender.FirstName),
		b.keyboard.MainMenu(),
	)
}

// forceJoinOK checks required channel membership when the force-join
// setting is on. Verification failures count as joined so a Telegram
// hiccup never locks users out.
func (b *Bot) forceJoinOK(tgID int64) (bool, []string) {
	if b.repos.Setting.Get(repository.SettingForceJoinEnabled, "0") != "1" {
		return true, nil
	}
	raw := b.repos.Setting.Get(repository.SettingRequiredChannels, "")
	if raw == "" {
		return true, nil
	}

	var missing []string
	for _, ch := range strings.Split(raw, ",") {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		resp, err := b.botAPI.GetChatMember(ch, tgID)
		if err != nil {
			continue
		}
		var parsed struct {
			Ok     bool `json:"ok"`
			Result struct {
				Status string `json:"status"`
			} `json:"result"`
		}
		if err := json.Unmarshal([]byte(resp), &parsed); err != nil || !parsed.Ok {
			continue
		}
		switch parsed.Result.Status {
		case "member", "administrator", "creator":
		default:
			missing = append(missing, ch)
		}
	}
	return len(missing) == 0, missing
}

// ── Text routing ──────────────────────────────────────────────────────

func (b *Bot) handleText(c tele.Context) error {
	user, err := b.repos.User.FindByTgID(c.Sender().ID)
	if err != nil {
		return c.Send("لطفاً از /start استفاده کنید.")
	}

	if joined, channels := b.forceJoinOK(user.TgID); !joined {
		return c.Send("برای استفاده از ربات ابتدا در کانال‌های زیر عضو شوید:", b.keyboard.JoinKeyboard(channels))
	}

	switch c.Message().Text {
	case btnBuy:
		return b.startBuy(c, user)
	case btnMySeats:
		return b.sendMySeats(c, user)
	case btnWallet:
		return b.sendWallet(c, user)
	case btnReferral:
		return b.sendReferral(c, user)
	case btnSupport:
		return c.Send(fmt.Sprintf("📞 برای پشتیبانی به ادمین پیام دهید: @%s", b.cfg.Bot.Username))
	default:
		return c.Send("از منوی زیر انتخاب کنید:", b.keyboard.MainMenu())
	}
}

// ── Buy flow ──────────────────────────────────────────────────────────

// startBuy opens a pending order (or resumes the existing one) and
// shows the card payment instructions.
func (b *Bot) startBuy(c tele.Context, user *models.User) error {
	ctx := context.Background()

	order, err := b.repos.Order.NewestPendingByUser(user.ID)
	if err != nil {
		price := b.repos.Setting.GetInt64(repository.SettingPrice, b.cfg.Shop.Price)
		order, err = b.svc.CreateOrder(ctx, user.ID, price, b.cfg.Shop.Currency, user.UTM)
		if err != nil {
			b.logger.Error("Failed to create order", zap.Uint("user_id", user.ID), zap.Error(err))
			return c.Send("خطایی رخ داد، لطفاً دوباره تلاش کنید.")
		}
	}

	card, err := b.repos.Card.FindActive()
	if err != nil {
		b.NotifyOperator("buy attempt with no active card configured")
		return c.Send("در حال حاضر امکان پرداخت وجود ندارد، لطفاً بعداً تلاش کنید.")
	}

	text := fmt.Sprintf(
		"🧾 سفارش #%d\n\n💰 مبلغ: %s\n💳 شماره کارت:\n`%s`\n(%s)\n\nپس از واریز، تصویر رسید را همین‌جا ارسال کنید.",
		order.ID,
		utils.FormatAmount(order.Amount, order.Currency),
		card.CardNumber, card.Title,
	)
	return c.Send(text, b.keyboard.PayKeyboard(order.ID), tele.ModeMarkdown)
}

// ── Receipt photo ─────────────────────────────────────────────────────

func (b *Bot) handlePhoto(c tele.Context) error {
	ctx := context.Background()

	user, err := b.repos.User.FindByTgID(c.Sender().ID)
	if err != nil {
		return c.Send("لطفاً از /start استفاده کنید.")
	}

	order, err := b.repos.Order.NewestPendingByUser(user.ID)
	if err != nil {
		return c.Send("سفارش در انتظار پرداختی ندارید. ابتدا از منو خرید را شروع کنید.")
	}

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	rcpt := &models.Receipt{
		OrderID:    order.ID,
		TgFileID:   photo.FileID,
		OrigChatID: user.TgID,
		Tracking:   utils.GenerateTracking(),
	}
	if err := b.svc.SubmitReceipt(ctx, order.ID, rcpt); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Send("این سفارش قبلاً بررسی شده است.")
		}
		b.logger.Error("Failed to submit receipt", zap.Uint("order_id", order.ID), zap.Error(err))
		return c.Send("خطایی رخ داد، لطفاً دوباره تلاش کنید.")
	}

	b.forwardReceipt(order, user, photo)

	return c.Send(fmt.Sprintf(
		"✅ رسید شما دریافت شد.\n🔖 کد پیگیری: `%s`\n\nپس از بررسی توسط ادمین نتیجه اطلاع داده می‌شود.",
		rcpt.Tracking,
	), tele.ModeMarkdown)
}

// forwardReceipt posts the receipt photo into the approval chat with
// approve/reject buttons and remembers the message id.
func (b *Bot) forwardReceipt(order *models.Order, user *models.User, photo *tele.Photo) {
	if b.cfg.Bot.ApprovalChat == 0 {
		return
	}

	caption := fmt.Sprintf(
		"🧾 رسید سفارش #%d\n👤 %s (@%s)\n💰 %s",
		order.ID, user.FirstName, user.Username,
		utils.FormatAmount(order.Amount, order.Currency),
	)
	msg, err := b.tb.Send(
		tele.ChatID(b.cfg.Bot.ApprovalChat),
		&tele.Photo{File: tele.File{FileID: photo.FileID}, Caption: caption},
		b.keyboard.ApprovalKeyboard(order.ID),
	)
	if err != nil {
		b.logger.Error("Failed to forward receipt to approval chat", zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}
	if err := b.repos.Order.SetReceiptChannelMsg(order.ID, msg.ID); err != nil {
		b.logger.Warn("Failed to record approval message id", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

// ── Callback queries ──────────────────────────────────────────────────

func (b *Bot) handleCallback(c tele.Context) error {
	data := strings.TrimSpace(c.Callback().Data)
	// telebot prefixes \f to Unique-style callbacks; ours are plain.
	data = strings.TrimPrefix(data, "\f")

	user, err := b.repos.User.FindByTgID(c.Sender().ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "لطفاً /start بزنید"})
	}

	switch {
	case data == "check_join":
		if joined, channels := b.forceJoinOK(user.TgID); !joined {
			_ = c.Respond(&tele.CallbackResponse{Text: "هنوز عضو همه کانال‌ها نشده‌اید", ShowAlert: true})
			return c.Send("برای استفاده از ربات ابتدا در کانال‌های زیر عضو شوید:", b.keyboard.JoinKeyboard(channels))
		}
		_ = c.Respond()
		return c.Send("✅ عضویت تایید شد.", b.keyboard.MainMenu())

	case strings.HasPrefix(data, "cancel:"):
		return b.cancelOrder(c, user, data)

	case strings.HasPrefix(data, "approve:"):
		return b.approveOrder(c, user, data)

	case strings.HasPrefix(data, "reject:"):
		return b.rejectOrder(c, user, data)

	case strings.HasPrefix(data, "code:"):
		return b.sendTwofaCode(c, user, data)

	case strings.HasPrefix(data, "seat:"):
		return b.sendSeatDetail(c, user, data)
	}

	return c.Respond()
}

// cooldownMinutes rounds a cooldown up to whole minutes for display.
func cooldownMinutes(d time.Duration) int {
	m := int((d + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func parseCallbackID(data string) uint {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (b *Bot) cancelOrder(c tele.Context, user *models.User, data string) error {
	ctx := context.Background()
	orderID := parseCallbackID(data)

	order, err := b.repos.Order.FindByID(orderID)
	if err != nil || order.UserID != user.ID {
		return c.Respond(&tele.CallbackResponse{Text: "سفارش یافت نشد"})
	}
	if err := b.svc.Reject(ctx, orderID, "cancelled_by_user"); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Respond(&tele.CallbackResponse{Text: "این سفارش قابل لغو نیست", ShowAlert: true})
		}
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "سفارش لغو شد"})
	return c.Edit("❌ سفارش لغو شد.")
}

// approvalSettings merges config defaults with the settings-table
// referral percent override.
func (b *Bot) approvalSettings() service.Settings {
	set := service.SettingsFromConfig(b.cfg)
	if p := b.repos.Setting.GetInt64(repository.SettingReferralPercent, -1); p >= 0 && p <= 100 {
		set.ReferralPercent = int(p)
	}
	return set
}

func (b *Bot) approveOrder(c tele.Context, admin *models.User, data string) error {
	if !admin.IsAdmin {
		return c.Respond(&tele.CallbackResponse{Text: "دسترسی ندارید", ShowAlert: true})
	}
	ctx := context.Background()
	orderID := parseCallbackID(data)

	res, err := b.svc.Approve(ctx, orderID, b.approvalSettings())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTransition):
			return c.Respond(&tele.CallbackResponse{Text: "این سفارش قبلاً بررسی شده است", ShowAlert: true})
		case errors.Is(err, service.ErrAllocationFailed):
			return c.Respond(&tele.CallbackResponse{Text: "ظرفیت خالی وجود ندارد!", ShowAlert: true})
		}
		b.logger.Error("Approve failed", zap.Uint("order_id", orderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد", ShowAlert: true})
	}

	b.deliverSeat(res)

	_ = c.Respond(&tele.CallbackResponse{Text: "تایید شد ✅"})
	// the approval message is a photo, so the caption carries the verdict
	return c.EditCaption(fmt.Sprintf("✅ سفارش #%d تایید شد (صندلی %d، ظرفیت باقی‌مانده %d)",
		res.Order.ID, res.Seat.ID, res.Seat.FreeSlots()))
}

func (b *Bot) rejectOrder(c tele.Context, admin *models.User, data string) error {
	if !admin.IsAdmin {
		return c.Respond(&tele.CallbackResponse{Text: "دسترسی ندارید", ShowAlert: true})
	}
	ctx := context.Background()
	orderID := parseCallbackID(data)

	order, err := b.repos.Order.FindByID(orderID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "سفارش یافت نشد"})
	}
	if err := b.svc.Reject(ctx, orderID, "rejected_by_admin"); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return c.Respond(&tele.CallbackResponse{Text: "این سفارش قبلاً بررسی شده است", ShowAlert: true})
		}
		b.logger.Error("Reject failed", zap.Uint("order_id", orderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد", ShowAlert: true})
	}

	if buyer, err := b.repos.User.FindByID(order.UserID); err == nil {
		_, _ = b.botAPI.SendMessage(buyer.TgID,
			fmt.Sprintf("❌ سفارش #%d شما رد شد.\nدر صورت واریز وجه با پشتیبانی تماس بگیرید.", order.ID), nil)
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "رد شد ❌"})
	return c.EditCaption(fmt.Sprintf("❌ سفارش #%d رد شد.", orderID))
}

// deliverSeat sends the allocated credentials to the buyer and a sell
// report to the report channel.
func (b *Bot) deliverSeat(res *service.ApprovalResult) {
	password, err := b.sealer.Open(res.Seat.PassEnc)
	if err != nil {
		b.logger.Error("Failed to open seat password", zap.Uint("seat_id", res.Seat.ID), zap.Error(err))
		b.NotifyOperator(fmt.Sprintf("order %d approved but credentials could not be decrypted", res.Order.ID))
		return
	}

	text := fmt.Sprintf(
		"✅ سفارش شما تایید شد\n\n👤 نام کاربری: %s\n🔑 رمز عبور: %s\n\nبرای دریافت کد 2FA از دکمه زیر استفاده کنید.",
		res.Seat.Email, password,
	)
	if _, err := b.tb.Send(tele.ChatID(res.User.TgID), text, b.keyboard.CodeKeyboard(res.Order.ID)); err != nil {
		b.logger.Error("Failed to deliver credentials", zap.Int64("tg_id", res.User.TgID), zap.Error(err))
	}

	if b.cfg.Bot.ReportChannel != 0 {
		report := fmt.Sprintf(
			"✅ گزارش فروش\n\nسفارش #%d برای @%s تایید شد\n💺 ظرفیت باقی‌مانده صندلی: %d\n💰 مبلغ: %s",
			res.Order.ID, res.User.Username, res.Seat.FreeSlots(),
			utils.FormatAmount(res.Order.Amount, res.Order.Currency),
		)
		_, _ = b.botAPI.SendMessage(b.cfg.Bot.ReportChannel, report, nil)
	}
}

// ── 2FA code ──────────────────────────────────────────────────────────

func (b *Bot) sendTwofaCode(c tele.Context, user *models.User, data string) error {
	ctx := context.Background()
	orderID := parseCallbackID(data)

	order, err := b.repos.Order.FindByID(orderID)
	if err != nil || order.UserID != user.ID {
		return c.Respond(&tele.CallbackResponse{Text: "سفارش یافت نشد"})
	}
	if order.Status != models.OrderStatusApproved || order.SeatID == nil {
		return c.Respond(&tele.CallbackResponse{Text: "این سفارش هنوز تایید نشده است", ShowAlert: true})
	}

	set := b.approvalSettings()
	attempt, err := b.svc.CheckAndIncrement(ctx, orderID, set)
	if err != nil {
		if errors.Is(err, service.ErrRetryLimitExceeded) {
			return c.Respond(&tele.CallbackResponse{
				Text:      fmt.Sprintf("تعداد درخواست‌ها بیش از حد مجاز است. %d دقیقه دیگر دوباره تلاش کنید.", cooldownMinutes(set.TwofaCooldown)),
				ShowAlert: true,
			})
		}
		b.logger.Error("2FA guard check failed", zap.Uint("order_id", orderID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}

	seat, err := b.repos.Seat.FindByID(*order.SeatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}
	secret, err := b.sealer.Open(seat.SecretEnc)
	if err != nil {
		b.logger.Error("Failed to open seat secret", zap.Uint("seat_id", seat.ID), zap.Error(err))
		b.NotifyOperator(fmt.Sprintf("2FA secret for seat %d could not be decrypted", seat.ID))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}
	code, err := totp.Code(secret)
	if err != nil {
		b.logger.Error("TOTP generation failed", zap.Uint("seat_id", seat.ID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}

	_ = c.Respond()
	text := fmt.Sprintf("🔐 کد 2FA شما:\n`%s`\n\n⏳ اعتبار: %d ثانیه", code, totp.ValiditySeconds(time.Now()))
	if !order.TwofaDisabled && set.TwofaMaxAttempts > 0 {
		remaining := set.TwofaMaxAttempts - attempt
		if remaining < 0 {
			remaining = 0
		}
		text += fmt.Sprintf("\n📊 درخواست‌های باقی‌مانده: %d", remaining)
	}
	return c.Send(text, tele.ModeMarkdown)
}

// ── Menu screens ──────────────────────────────────────────────────────

func (b *Bot) sendMySeats(c tele.Context, user *models.User) error {
	orders, err := b.repos.Order.ApprovedByUser(user.ID)
	if err != nil || len(orders) == 0 {
		return c.Send("اشتراک فعالی ندارید. از منو می‌توانید خرید کنید.", b.keyboard.MainMenu())
	}
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return c.Send("📦 اشتراک‌های شما:", b.keyboard.SeatListKeyboard(ids))
}

func (b *Bot) sendSeatDetail(c tele.Context, user *models.User, data string) error {
	orderID := parseCallbackID(data)

	order, err := b.repos.Order.FindByID(orderID)
	if err != nil || order.UserID != user.ID || order.SeatID == nil {
		return c.Respond(&tele.CallbackResponse{Text: "اشتراک یافت نشد"})
	}
	seat, err := b.repos.Seat.FindByID(*order.SeatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}
	password, err := b.sealer.Open(seat.PassEnc)
	if err != nil {
		b.logger.Error("Failed to open seat password", zap.Uint("seat_id", seat.ID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "خطایی رخ داد"})
	}

	_ = c.Respond()
	text := fmt.Sprintf(
		"📦 اشتراک #%d\n\n👤 نام کاربری: %s\n🔑 رمز عبور: %s",
		order.ID, seat.Email, password,
	)
	return c.Send(text, b.keyboard.CodeKeyboard(order.ID))
}

func (b *Bot) sendWallet(c tele.Context, user *models.User) error {
	wallet, err := b.repos.Wallet.GetOrCreate(user.ID)
	if err != nil {
		b.logger.Error("Failed to load wallet", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.Send("خطایی رخ داد، لطفاً دوباره تلاش کنید.")
	}
	return c.Send(fmt.Sprintf(
		"💰 کیف پول شما\n\n💵 موجودی: %s\n🎁 اعتبار هدیه: %s\n🤝 درآمد از دعوت: %s",
		utils.FormatNumber(wallet.Balance),
		utils.FormatNumber(wallet.FreeCredit),
		utils.FormatNumber(wallet.ReferralEarned),
	))
}

func (b *Bot) sendReferral(c tele.Context, user *models.User) error {
	referred, _ := b.repos.User.CountReferredBy(user.ID)
	percent := b.approvalSettings().ReferralPercent
	link := fmt.Sprintf("https://t.me/%s?start=ref_%d", b.cfg.Bot.Username, user.TgID)
	return c.Send(fmt.Sprintf(
		"🎁 دعوت دوستان\n\nبا هر خرید دوستان شما %d%% از مبلغ به کیف پول شما اضافه می‌شود.\n\n👥 دعوت‌شده‌ها: %d\n🔗 لینک دعوت:\n%s",
		percent, referred, link,
	))
}

// ── Admin commands ────────────────────────────────────────────────────

// handleStats gives the admin a quick in-chat snapshot without opening
// the web panel.
func (b *Bot) handleStats(c tele.Context) error {
	if !b.repos.User.IsAdmin(c.Sender().ID) {
		return nil
	}

	users, _ := b.repos.User.Count()
	pending, _ := b.repos.Order.CountByStatus(models.OrderStatusPending)
	receipt, _ := b.repos.Order.CountByStatus(models.OrderStatusReceipt)
	approved, _ := b.repos.Order.CountByStatus(models.OrderStatusApproved)
	revenue, _ := b.repos.Order.SumApproved()
	activeSeats, _ := b.repos.Seat.CountActive()
	freeSlots, _ := b.repos.Seat.FreeSlotTotal()

	return c.Send(fmt.Sprintf(
		"📊 وضعیت ربات\n\n👥 کاربران: %d\n🕐 سفارش در انتظار: %d\n🧾 رسید در انتظار بررسی: %d\n✅ فروش کل: %d\n💰 درآمد کل: %s\n💺 صندلی فعال: %d\n🪑 ظرفیت خالی: %d",
		users, pending, receipt, approved,
		utils.FormatAmount(revenue, b.cfg.Shop.Currency),
		activeSeats, freeSlots,
	))
}

// ── Broadcast ─────────────────────────────────────────────────────────

// handleBroadcast sends /broadcast <text> to every registered user.
// Admin only. Delivery failures (blocked bots) are counted, not fatal.
func (b *Bot) handleBroadcast(c tele.Context) error {
	if !b.repos.User.IsAdmin(c.Sender().ID) {
		return nil
	}

	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return c.Send("استفاده: /broadcast <متن پیام>")
	}

	ids, err := b.repos.User.AllTgIDs()
	if err != nil {
		return c.Send("خطا در خواندن لیست کاربران.")
	}

	adminID := c.Sender().ID
	go func() {
		sent, failed := 0, 0
		for _, tgID := range ids {
			if _, err := b.botAPI.SendMessage(tgID, text, nil); err != nil {
				failed++
			} else {
				sent++
			}
			time.Sleep(50 * time.Millisecond) // stay under Telegram rate limits
		}
		b.svc.LogEvent(context.Background(), fmt.Sprintf("broadcast:sent:%d:failed:%d", sent, failed))
		_, _ = b.botAPI.SendMessage(adminID,
			fmt.Sprintf("📣 ارسال همگانی تمام شد: %d موفق، %d ناموفق", sent, failed), nil)
	}()

	return c.Send(fmt.Sprintf("📣 ارسال همگانی برای %d کاربر شروع شد.", len(ids)))
}
