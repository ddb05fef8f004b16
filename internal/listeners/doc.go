// Package listeners - встроенные слушатели и команды.
//
//   - echo    - команда: повторяет аргумент (config: prefix).
//   - help    - команда: список видимых алиасов или справка по одному.
//   - choose  - команда: случайный выбор из вариантов, кавычки
//     группируют слова (!choose пицца "суши роллы" n=2).
//   - respond - слушатель: отвечает на не-команды, совпавшие с шаблоном
//     (config: pattern, reply; $1 и ${name} подставляются).
//   - log     - слушатель: пишет каждое сообщение в лог.
//
// Register регистрирует их все в scope.Registry.
package listeners
