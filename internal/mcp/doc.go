// Package mcp exposes the bereshit commands as Model Context Protocol tools
// over stdio.
//
// Tools:
//   - list_projects
//   - create_project {name, path, description?}
//   - delete_project {project_id}
//   - open_project_folder {project_path}
//
// Successful results carry the command's value as JSON text plus structured
// content. Failures are reported as tool errors whose text is the command's
// error message.
package mcp
