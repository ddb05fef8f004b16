// Package wsclient - адаптер чата поверх WebSocket с JSON-кадрами.
//
// Клиент подключается к серверу-мосту, принимает кадры
//
//	{"type":"message","id":"...","text":"...","user":{...},"channel":{...}}
//
// и превращает их в chat.Message; ответы уходят кадрами
//
//	{"type":"send","seq":1,"reply_to":"...","channel":"...","text":"..."}
//
// Если задан AckTimeout, Reply ждёт кадр {"type":"ack","seq":1} (или
// {"type":"ack","seq":1,"error":"..."}) с тем же seq.
//
// Безопасность и устойчивость:
//   - Запись в сокет сериализована (мьютекс + write-deadline).
//   - Keep-alive: ping каждые PingInterval (по умолчанию 10s), pong
//     продлевает read-deadline.
//   - При обрыве - экспоненциальный реконнект (1s → 30s) и сброс
//     ожидающих подтверждений с ошибкой.
package wsclient
