// Package bot - верхний контроллер: держит активную конфигурацию,
// проводит слушателей через жизненный цикл и владеет флагом "dirty".
//
// Жизненный цикл:
//   - Создать бота через New(registry, logger).
//   - Загрузить конфигурацию: Load(cfg). Повторный Load - это reload:
//     новая конфигурация собирается, инициализируется и запускается
//     целиком, и только потом подменяет старую.
//   - Запустить адаптеры: Run(ctx, adapters...). Каждое входящее
//     сообщение уходит в Dispatch.
//   - Остановить Stop(): дренаж диспетчера и Stop у всех слушателей.
//
// Пример:
//
//	reg := scope.NewRegistry()
//	listeners.Register(reg)
//
//	b := bot.New(reg, logger)
//	if err := b.Load(cfg); err != nil { log.Fatal(err) }
//	defer b.Stop()
//	_ = b.Run(ctx, console.New(os.Stdin, os.Stdout))
//
// Ошибки жизненного цикла:
//   - FromConfig/Init: слушатель выбрасывается, остальные продолжают.
//   - Start: вся новая конфигурация отменяется, старая остаётся в силе.
//   - Неожиданная ошибка (не *scope.ListenerError) или паника в Start/Stop
//     переводит бота в состояние dirty до перезапуска процесса; после
//     этого Load отказывает.
package bot
