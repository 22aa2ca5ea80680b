package builtin

import "github.com/harunnryd/hibiki/internal/tool"

// RegisterAll installs every builtin tool into the registry.
func RegisterAll(registry *tool.Registry, env *Env) {
	registry.Register(&OpenWebsite{env: env})
	registry.Register(&CloseWebsite{env: env})
	registry.Register(&OpenApp{env: env})
	registry.Register(&CloseApp{env: env})
	registry.Register(&FindFile{env: env})
	registry.Register(&CreateFolder{env: env})
	registry.Register(&OpenFolder{env: env})
	registry.Register(&SystemInfo{env: env})
	registry.Register(&ListContents{env: env})
	registry.Register(&AddTask{env: env})
	registry.Register(&ListTasks{env: env})
	registry.Register(&CompleteTask{env: env})
	registry.Register(&AddReminder{env: env})
	registry.Register(&ListReminders{env: env})
	registry.Register(&SetMusicPreference{env: env})
	registry.Register(&PlayMusic{env: env})
	registry.Register(&AddCalendarEvent{env: env})
}
