// Package audio decodes source recordings into mono float waveforms at the
// corpus sample rate and writes accepted clips as 16-bit PCM WAV files.
//
// Decoding goes through the Decoder interface. NativeDecoder handles WAV and
// MP3 in pure Go, FFmpegDecoder pipes any format through ffmpeg, and
// AutoDecoder picks between them per file.
package audio
