// Package scope - ядро разрешения конфигурации на событие.
//
// Администратор описывает:
//   - группы (Group): именованные наборы, которые включают другие группы,
//     добавляют flex-значения и "якоря" слушателей (определение нового
//     экземпляра или ссылку на уже видимый по имени);
//   - mapping'и (Mapping): конъюнкция селекторов → список групп.
//
// Build компилирует декодированный конфиг в Resolver. Все структурные ошибки
// (цикл include, неизвестная группа или ссылка, кривые алиасы/селекторы)
// возвращаются как *ConfigError до того, как хоть один слушатель выйдет из
// состояния Created. Затем у каждого определения вызывается FromConfig;
// слушатель, у которого он упал, выбрасывается вместе со ссылками на него.
//
// Resolver.Resolve(msg) для каждого подходящего mapping'а добавляет его группы
// в новый Context: include'ы раньше самой группы, каждая группа ровно один раз,
// flex более поздней группы перекрывает ранние. Слушатели сливаются по имени:
// тот же Envelope - слияние flex и алиасов, другой - замена. После каждой
// группы пересчитывается индекс алиас → ссылка (коллизии: побеждает
// последний, пишем в лог).
//
// Resolver неизменяем после Build и безопасен для параллельных вызовов.
//
// Жизненный цикл слушателя: Created → Configured → Initialized → Started →
// Stopped, либо Failed при ошибке FromConfig/Init/Start. Init/Start/Stop
// вызывает internal/bot.
package scope
