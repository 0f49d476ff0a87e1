package messages

import (
	"fmt"
	"strings"

	"github.com/BatmanBruc/bat-bot-merger/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func gb(size int64) string {
	return fmt.Sprintf("%.2f ГБ", float64(size)/(1024*1024*1024))
}

func StartWelcome() string {
	return "👋 <b>Привет!</b>\nЯ склеиваю видео и аудио.\n\n" +
		"🎬 Отправьте видео, затем аудиофайл.\n" +
		"🎛 Выберите режим в появившихся кнопках."
}

func Help() string {
	return "ℹ️ <b>Как это работает</b>\n\n" +
		"1. Отправьте видео (mp4, mkv, mov, avi).\n" +
		"2. Отправьте аудио (mp3, aac, wav, m4a, ogg).\n" +
		"3. Выберите режим:\n" +
		"🔁 <b>Заменить звук</b> — оригинальная дорожка отбрасывается.\n" +
		"➕ <b>Добавить звук</b> — дорожки смешиваются."
}

func ErrorDefault() string {
	return "🚫 <b>Ошибка</b>\nПопробуйте ещё раз."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Команда не найдена</b>"
}

func ErrorUnsupportedMessageType() string {
	return "🤖 <b>Я так не умею</b>\nОтправьте видео или аудиофайл."
}

func NotAdmin() string {
	return "⛔ Команда доступна только администраторам."
}

// Validation

func ValidationUnsupportedFormat(ext string) string {
	return fmt.Sprintf("🚫 <b>Неподдерживаемый формат:</b> %s", Escape(ext))
}

func ValidationSizeExceeded(size, limit int64) string {
	return fmt.Sprintf("🚫 <b>Файл слишком большой:</b> %s &gt; %s", gb(size), gb(limit))
}

func ValidationMimeMismatch(expected, got string) string {
	return fmt.Sprintf("🚫 <b>Тип файла не совпадает:</b> ожидался %s, получен %s", Escape(expected), Escape(got))
}

// Session flow

func VideoReceived() string {
	return "📥 <b>Видео получено</b>\nТеперь отправьте аудиофайл."
}

func AudioReceivedChooseMode() string {
	return "🎛 <b>Аудио получено</b>\nВыберите режим склейки:"
}

func SendVideoFirst() string {
	return "🎬 Сначала отправьте видео."
}

func InvalidState() string {
	return "🚫 Неверное состояние. Начните заново: видео, затем аудио."
}

func AlreadyProcessing() string {
	return "⏳ Уже обрабатываю ваш запрос."
}

// Pipeline

func MaintenanceNotice() string {
	return "🛠 <b>Бот на обслуживании</b>\nПопробуйте позже."
}

func InsufficientStorage() string {
	return "🚫 <b>Недостаточно места на диске</b>\nПопробуйте позже."
}

func StartingMerge() string {
	return "⚙️ <b>Начинаю склейку…</b>"
}

const (
	LabelDownloadVideo = "⏬ Скачиваю видео:"
	LabelDownloadAudio = "⏬ Скачиваю аудио:"
	LabelUpload        = "⏫ Загружаю результат:"
)

func Merging() string {
	return "🎛 <b>Склеиваю дорожки…</b>"
}

func DownloadFailed() string {
	return "🚫 <b>Не удалось скачать файл</b>\nПопробуйте ещё раз."
}

func MergeFailed(diagnostic string) string {
	msg := "🚫 <b>Ошибка склейки</b>"
	diagnostic = strings.TrimSpace(diagnostic)
	if diagnostic != "" {
		if len(diagnostic) > 2000 {
			diagnostic = diagnostic[len(diagnostic)-2000:]
		}
		msg += "\n\n<code>" + Escape(diagnostic) + "</code>"
	}
	return msg
}

func UploadFailed() string {
	return "🚫 <b>Не удалось отправить результат</b>\nПопробуйте ещё раз."
}

func MergeDone() string {
	return "✅ <b>Готово!</b>"
}

func ResultCaption(mode types.MergeMode) string {
	switch mode {
	case types.ModeMix:
		return "Готово! Режим: добавление звука"
	default:
		return "Готово! Режим: замена звука"
	}
}

// Mode buttons

func ButtonReplace() string { return "🔁 Заменить звук" }
func ButtonMix() string     { return "➕ Добавить звук" }

// Admin

func StatsText(s types.BotStats) string {
	return fmt.Sprintf("📊 <b>Статистика</b>\nПользователей: %d\nПремиум: %d\nФайлов: %d",
		s.TotalUsers, s.PremiumUsers, s.TotalFiles)
}

func Cleaned(count int64) string {
	return fmt.Sprintf("🧹 Удалено записей: %d", count)
}

func BroadcastUsage() string {
	return "Ответьте командой на сообщение, которое нужно разослать."
}

func BroadcastDone(count int) string {
	return fmt.Sprintf("📨 Разослано %d пользователям.", count)
}

func MaintenanceState(on bool) string {
	if on {
		return "🛠 Режим обслуживания: <b>ВКЛ</b>"
	}
	return "🛠 Режим обслуживания: <b>ВЫКЛ</b>"
}

// Premium

func PremiumUsage() string {
	return "Использование: /premium &lt;токен&gt;"
}

func PremiumActivated() string {
	return "⭐ <b>Премиум активирован!</b>"
}

func PremiumAlreadyActive() string {
	return "⭐ Премиум уже активен."
}

func PremiumInvalidCredential(err error) string {
	msg := "🚫 <b>Недействительный токен</b>"
	if err != nil {
		msg += "\n<code>" + Escape(err.Error()) + "</code>"
	}
	return msg
}

func SetPremiumUsage() string {
	return "Использование: /setpremium &lt;user_id&gt;"
}

func SetPremiumDone(userID int64) string {
	return fmt.Sprintf("⭐ Премиум выдан пользователю %d", userID)
}

func SetPremiumInvalidID() string {
	return "🚫 Неверный идентификатор пользователя."
}
