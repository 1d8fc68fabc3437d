package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/api"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/render"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/translator/studio"
)

// snapshotKeys are the top-level keys that mark a file as a serialized
// Snapshot rather than page text.
var snapshotKeys = []string{
	"selection", "bodyText", "inputs", "scripts", "editorModels", "codeMirror",
	"codeBlocks", "frameworkProps", "globals", "attributes", "viewers", "detailPanels",
}

// LoadSnapshot reads a snapshot file. A JSON object with snapshot keys is
// decoded as is; any other content becomes the selection text.
func LoadSnapshot(data []byte) (*extract.Snapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		for _, key := range snapshotKeys {
			if _, ok := probe[key]; ok {
				var snap extract.Snapshot
				if err := json.Unmarshal(data, &snap); err != nil {
					return nil, fmt.Errorf("invalid snapshot: %w", err)
				}
				return &snap, nil
			}
		}
	}
	return &extract.Snapshot{Selection: string(data)}, nil
}

// DoExtract prints the payload extracted from the snapshot file at path.
func DoExtract(w io.Writer, cfg *config.Config, path string, mode extract.Mode) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := LoadSnapshot(data)
	if err != nil {
		return err
	}
	res := api.NewExtractor(cfg.Extraction).Extract(snap, mode)
	if !res.OK {
		log.WithField("debug", res.Debug).Debug("extract failed")
		return res.Err()
	}
	log.WithFields(log.Fields{"mode": mode, "count": res.Count, "agent": res.AgentName}).Info("extracted")
	_, err = fmt.Fprintln(w, res.Value)
	return err
}

// DoGenerate converts the tools and messages files and prints the body in
// format. toolsPath may be empty.
func DoGenerate(w io.Writer, cfg *config.Config, toolsPath, messagesPath string, format render.Format) error {
	var tools string
	if toolsPath != "" {
		data, err := os.ReadFile(toolsPath)
		if err != nil {
			return fmt.Errorf("failed to read tools: %w", err)
		}
		tools = string(data)
	}
	data, err := os.ReadFile(messagesPath)
	if err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}

	out, err := studio.Generate(tools, string(data), cfg.Request)
	if err != nil {
		return err
	}
	res := render.Render(out.Request, out.Body)
	log.WithFields(log.Fields{"messages": res.MessageCount, "tools": res.ToolCount, "tokens": res.Tokens}).Info("request generated")
	_, err = fmt.Fprintln(w, strings.TrimRight(res.Pick(format), "\n"))
	return err
}
