// Package model defines the normalized backend contract consumed by agent
// executors: a Request (instructions, conversation turns, offered tools and an
// optional output-schema hint) and a Response (text, structured value or
// requested tool calls). Provider adapters live in sub-packages (openai,
// anthropic, ollama, gemini) and translate between this contract and the
// vendor SDKs so executors never branch per provider.
package model
