// Package events lets services announce template changes without knowing
// who reacts to them.
//
// The primary components are:
// - TemplateEvent: a recurring template was created or its schedule changed
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
