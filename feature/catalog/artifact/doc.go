// Package artifact checks whether the audio file of a song has already been
// acquired, either in a local directory or in an object storage bucket.
package artifact
