// Package memory contains concrete core.Memory implementations. The Memory
// interface and the Turn type reside in the core package. Depend on
// core.Memory in your code and select an implementation (like the sliding
// window below) at wiring time.
package memory
