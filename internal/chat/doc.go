// Package chat описывает абстрактные сущности, которые протокольные адаптеры
// (IRC, Discord, websocket, консоль) отдают ядру бота:
//   - Service - подключение к конкретной сети/протоколу;
//   - Guild - сервер/сообщество внутри сервиса (есть не у всех протоколов);
//   - Channel - канал или комната (у личных сообщений канала нет);
//   - User - автор сообщения;
//   - Message - входящее событие с текстом и методом Reply.
//
// Subject - закрытое объединение этих сущностей, по которому работают
// селекторы. Проекции (Message→Channel, Channel→Guild и т.д.) тотальные:
// если проекции нет, возвращается nil.
//
// Адаптер реализует Adapter и передаёт каждое входящее сообщение в Sink.
package chat
