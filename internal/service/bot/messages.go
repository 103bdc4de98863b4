package bot

// 봇이 사용자에게 보내는 응답 문구입니다.
const (
	msgRunning = "✅ Bot is running."
	msgOK      = "ok"

	msgEmptyList   = "📭 Немає товарів для відстеження."
	msgListHeader  = "📦 Список товарів для відстеження:\n\n"
	msgUsage       = "❗ Формат команди:\n/add Назва URL СЕКРЕТНИЙ_КОД"
	msgWrongSecret = "🚫 Невірний секретний код."
	msgDuplicate   = "⚠️ Цей товар уже є в списку."
	msgAddedFormat = "✅ Товар %s додано до списку відстеження."
	msgSaveFailed  = "⚠️ Не вдалося зберегти список товарів. Спробуйте пізніше."
	msgLastCheck   = "🕓 Остання перевірка виконана:\n"
	msgNoLastCheck = "Інформація про останню перевірку відсутня."
	msgUnknown     = "❔ Невідома команда. Використай /help для списку команд."
	msgHelp        = "🤖 Команди бота:\n" +
		"/list — показати список товарів\n" +
		"/add Назва URL СЕКРЕТНИЙ_КОД — додати новий товар\n" +
		"/last — показати коли була остання перевірка\n"
)

// 명령어
const (
	cmdList = "/list"
	cmdAdd  = "/add"
	cmdLast = "/last"
	cmdHelp = "/help"
)
