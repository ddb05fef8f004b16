package listeners

import (
	"regexp"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/chatbot/internal/scope"
)

// сплит с поддержкой кавычек: "суши роллы" - один аргумент
var reArg = regexp.MustCompile(`"([^"]*)"|(\S+)`)

func splitArgs(s string) []string {
	var out []string
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}

// parseKV отделяет key=value от позиционных аргументов.
func parseKV(args []string) (rest []string, kv map[string]string) {
	kv = map[string]string{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if ok && k != "" {
			kv[strings.ToLower(k)] = v
			continue
		}
		rest = append(rest, a)
	}
	return rest, kv
}

// ---------- статический конфиг ----------

func stringOpt(cfg *structpb.Struct, key, def string) (string, error) {
	v, ok := cfg.GetFields()[key]
	if !ok {
		return def, nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", scope.ListenerErrorf("config %q: want a string", key)
	}
	return s.StringValue, nil
}

func boolOpt(cfg *structpb.Struct, key string, def bool) (bool, error) {
	v, ok := cfg.GetFields()[key]
	if !ok {
		return def, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, scope.ListenerErrorf("config %q: want a bool", key)
	}
	return b.BoolValue, nil
}
