// Package settings owns the runtime-reconfigurable configuration of the
// IoTzy bridge: broker connection parameters, topic names, the capture
// device index, and the lamp automation thresholds.
//
// Unlike the bootstrap config (internal/infrastructure/config), settings can
// change while the process is running. The HTTP API applies partial patches;
// the sensing loop takes a fresh snapshot each iteration, so threshold and
// topic changes take effect within one loop period without a restart.
// Broker address changes are the one exception: the MQTT client reads its
// snapshot at connect time, so those apply on the next process start.
//
// # Consistency
//
// The store hands out value copies under a single lock. replace-wholesale
// semantics guarantee a reader sees either the old or the new document,
// never a mix. Patches merge per top-level field; the nested topics and
// automation groups are replaced as whole objects.
//
// # Persistence
//
// The document is a JSON file. A missing file means defaults; the file is
// first written on the first successful patch, and rewritten after every
// one thereafter.
package settings
