// Package student содержит справочник участников программы: студентов,
// карьерные группы и образовательные треки, к которым они относятся.
//
// Пакет не владеет прогрессом, лидами или практикой студента. Он лишь
// отвечает на вопросы "кто в этой группе" и "в какой группе студент",
// которые нужны для напоминаний о дедлайнах, проверки смены фазы и отчётов.
//
// # Основные сущности
//
//   - Education - образовательный трек (например, "Fullstack Developer")
//   - CareerGroup - когорта внутри трека, привязанная к региону
//   - Student - участник программы; может ещё не состоять в группе
//   - Company - работодатель, на которого ссылаются лиды и практики
//
// # Репозитории
//
// Directory реализуется в infrastructure/persistence (Postgres и in-memory).
package student
