package models

const (
	// SlotCapacity is the fixed number of units per slot: two half lanes or
	// one full lane. Not configurable per date.
	SlotCapacity = 2

	// DateLayout is the wire and storage format for calendar dates.
	DateLayout = "2006-01-02"

	// TimeLayout is the wire and storage format for slot start times.
	TimeLayout = "15:04"
)

const (
	// DefaultSessionTTL время жизни сессии бронирования в Redis
	DefaultSessionTTL = 2 * 60 * 60 // 2 часа в секундах

	// DefaultRefreshInterval период фонового обновления занятости
	DefaultRefreshInterval = 30 // секунд

	// NotifyQueueSize размер очереди уведомлений операторам
	NotifyQueueSize = 256

	// MaxAge верхняя граница строгой проверки возраста
	MaxAge = 120

	// DefaultMaxAdvanceDays максимальный горизонт бронирования
	DefaultMaxAdvanceDays = 60
)

// DefaultSlotTimes is the fixed daily schedule of slot starts used when the
// configuration does not supply one.
var DefaultSlotTimes = []string{
	"08:00", "09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00", "19:00", "20:00",
}
