package eventbus

// Topic constants for the engine's own fault/lifecycle traffic. User
// scripts are free to publish on any other topic name; these are just the
// ones the core itself produces.
const (
	TopicModuleFault    = "module.fault"
	TopicModuleDisabled = "module.disabled"
	TopicEngineState    = "engine.state"
)
