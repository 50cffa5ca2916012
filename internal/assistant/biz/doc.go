// Package biz implements the business logic of the assistant service:
// document chunking and indexing, context retrieval, prompt assembly,
// the chat pipeline, and course/user/analytics services.
package biz
