// Package audio handles time-windowing of long recordings into overlapping
// segments and the ffmpeg-backed decode/encode collaborator that materializes
// each segment as an independent MP3 sub-clip for transcription.
package audio
