package common

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
	"antware.xyz/authgate/internal/common"
	"antware.xyz/authgate/internal/engine"
)

// LoadObjects reads PermissionSet and binding manifests from the given YAML
// files (multi-document files supported) without needing a cluster.
func LoadObjects(paths []string) ([]common.PermissionSetObject, []common.BindingObject, error) {
	var sets []common.PermissionSetObject
	var bindings []common.BindingObject

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}

		for _, doc := range strings.Split(string(raw), "\n---") {
			if strings.TrimSpace(doc) == "" {
				continue
			}

			var probe struct {
				Kind string `json:"kind"`
			}
			if err := yaml.Unmarshal([]byte(doc), &probe); err != nil {
				return nil, nil, fmt.Errorf("%s: %w", path, err)
			}

			switch probe.Kind {
			case "PermissionSet":
				obj := &authzv1alpha1.PermissionSet{}
				if err := yaml.Unmarshal([]byte(doc), obj); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
				sets = append(sets, obj)
			case "ClusterPermissionSet":
				obj := &authzv1alpha1.ClusterPermissionSet{}
				if err := yaml.Unmarshal([]byte(doc), obj); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
				sets = append(sets, obj)
			case "PermissionBinding":
				obj := &authzv1alpha1.PermissionBinding{}
				if err := yaml.Unmarshal([]byte(doc), obj); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
				bindings = append(bindings, obj)
			case "ClusterPermissionBinding":
				obj := &authzv1alpha1.ClusterPermissionBinding{}
				if err := yaml.Unmarshal([]byte(doc), obj); err != nil {
					return nil, nil, fmt.Errorf("%s: %w", path, err)
				}
				bindings = append(bindings, obj)
			default:
				return nil, nil, fmt.Errorf("%s: unsupported kind %q", path, probe.Kind)
			}
		}
	}

	return sets, bindings, nil
}

// BuildEngine constructs a ready-to-query engine from loaded objects.
func BuildEngine(sets []common.PermissionSetObject, bindings []common.BindingObject) *engine.Engine {
	eng := engine.New()
	eng.Update(engine.BuildSnapshot(sets, bindings))
	return eng
}
