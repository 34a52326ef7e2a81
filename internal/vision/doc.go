// Package vision provides frame acquisition and person detection for
// the sensing loop.
//
// Frames are grayscale rasters. The default Source reads MJPEG over
// HTTP, one JPEG per multipart chunk, the format most IP cameras and
// stream relays serve. Camera indexes map onto the bootstrap config's
// stream URL list, so runtime settings can switch cameras by index the
// same way device-file backends number devices.
//
// Detection uses a pretrained pigo cascade. Presence is simply "the
// detector found at least one region above the quality threshold";
// tracking and identification are out of scope.
package vision
