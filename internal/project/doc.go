// Package project defines bereshit project records and creates them on disk.
//
// Project Representation:
//
// Each project is a directory chosen by the user plus a registry entry:
//   - Unique project ID (UUID v4), the only lookup key
//   - Display name (not required to be unique)
//   - Absolute path of the project directory ({base}/{name})
//   - RFC 3339 creation and modification timestamps
//   - Optional description
//   - Embedded ProjectConfig, also written to {path}/bereshit.json
//
// Factory:
//
// Factory.Create performs a linear, non-transactional sequence:
//   - mkdir -p {base}/{name}
//   - write the default ProjectConfig to bereshit.json
//   - build the Project record
//   - hand it to a Registrar (the registry store) for persistence
//
// A failure part way through leaves earlier steps on disk. Callers that
// need cleanup must do it themselves.
//
// Errors:
//
// All failures carry one of the kinds ErrIO, ErrParse, ErrSerialize or
// ErrNotFound so that callers can classify them with errors.Is.
package project
