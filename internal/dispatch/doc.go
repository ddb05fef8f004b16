// Package dispatch маршрутизирует входящие сообщения.
//
// Для каждого сообщения Dispatcher строит Context через scope.Resolver,
// пытается разобрать команду по шаблону из flex-ключа
// dispatcher.invocation, выполняет найденную команду и затем вызывает
// OnMessage у всех остальных активных слушателей контекста.
//
// Shutdown - это дренаж, а не отмена: он запрещает новые вызовы Dispatch
// и ждёт, пока закончатся уже начатые.
package dispatch
