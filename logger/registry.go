package logger

import "sync"

// components holds one child logger per component name. It is cleared when
// the global logger is replaced so later lookups pick up the new output.
var components sync.Map

// Register pins the logger returned by Get(name).
func Register(name string, l *Logger) {
	components.Store(name, l)
}

// Get returns the logger for a component: the registered one, or the global
// logger tagged with name.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	l, _ := components.LoadOrStore(name, GetGlobalLogger().WithComponent(name))
	return l.(*Logger)
}

func resetComponents() {
	components.Clear()
}
