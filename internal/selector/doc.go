// Package selector - предикаты над chat.Subject, из которых собираются
// правила scope mapping'ов.
//
// Варианты:
//   - all - всегда true;
//   - match - поле (service, guild, channel, user, их *_name, text) равно
//     литералу или целиком совпадает с регуляркой;
//   - and / or - комбинаторы с коротким замыканием;
//   - protocol, permission, flag, nsfw, visible, id.
//
// Каждый вариант отвечает для любого Subject: если Subject можно спроецировать
// на нужную сущность - судим по проекции (пустая проекция, например канал у ЛС,
// даёт false); если нельзя (селектор канала против пользователя) - true.
//
// Селекторы строятся из декларативного Spec через Build, который падает сразу
// на неизвестном виде или кривых параметрах. Match никогда не возвращает ошибку.
package selector
