// Package media resolves video links and turns them into local media files.
//
// Metadata comes from the Bilibili web API and the YouTube Data API. Media
// itself is fetched and processed with external tools: aria2c for Bilibili
// DASH streams, yt-dlp for YouTube, and ffmpeg for merging, audio extraction
// and splitting into transcription segments.
package media
