/*
Copyright 2025 The zoneops Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package directory resolves DNSInstance resources into dialable protocol
// targets, including credential material from Secrets.
package directory

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

// Default data keys in credential Secrets. A CredentialSecretRef can
// override each individually.
const (
	DefaultKeyNameKey   = "key-name"
	DefaultAlgorithmKey = "algorithm"
	DefaultSecretKey    = "secret"

	// TokenKey holds the bearer token for HTTP transport instances.
	TokenKey = "token"
)

type Directory struct {
	cl client.Client
}

func New(cl client.Client) *Directory {
	return &Directory{cl: cl}
}

// Target resolves the instance into a dialable endpoint, loading
// credentials from the referenced Secret when one is set. The Secret is
// read from the instance's namespace.
func (d *Directory) Target(ctx context.Context, inst *v1alpha1.DNSInstance) (nsproto.Target, error) {
	target := nsproto.Target{
		Host:      inst.Address(),
		Port:      inst.Spec.Endpoint.Port,
		Transport: inst.Spec.Endpoint.Transport,
	}
	if target.Transport == "" {
		target.Transport = v1alpha1.TransportKeyed
	}

	ref := inst.Spec.CredentialSecretRef
	if ref == nil {
		if target.Transport == v1alpha1.TransportKeyed {
			return nsproto.Target{}, fmt.Errorf("instance %s/%s: keyed transport requires credentialSecretRef", inst.Namespace, inst.Name)
		}
		return target, nil
	}

	var secret corev1.Secret
	if err := d.cl.Get(ctx, types.NamespacedName{Namespace: inst.Namespace, Name: ref.Name}, &secret); err != nil {
		return nsproto.Target{}, fmt.Errorf("getting credential secret %s/%s: %w", inst.Namespace, ref.Name, err)
	}

	switch target.Transport {
	case v1alpha1.TransportHTTP:
		token, err := secretValue(&secret, orDefault(ref.SecretKey, TokenKey))
		if err != nil {
			return nsproto.Target{}, fmt.Errorf("instance %s/%s: %w", inst.Namespace, inst.Name, err)
		}
		target.BearerToken = token
	case v1alpha1.TransportKeyed:
		creds, err := parseTSIG(&secret, ref)
		if err != nil {
			return nsproto.Target{}, fmt.Errorf("instance %s/%s: %w", inst.Namespace, inst.Name, err)
		}
		target.TSIG = creds
	}

	return target, nil
}

func parseTSIG(secret *corev1.Secret, ref *v1alpha1.CredentialSecretRef) (*nsproto.TSIGCredentials, error) {
	keyName, err := secretValue(secret, orDefault(ref.KeyNameKey, DefaultKeyNameKey))
	if err != nil {
		return nil, err
	}
	algorithm, err := secretValue(secret, orDefault(ref.AlgorithmKey, DefaultAlgorithmKey))
	if err != nil {
		return nil, err
	}
	key, err := secretValue(secret, orDefault(ref.SecretKey, DefaultSecretKey))
	if err != nil {
		return nil, err
	}
	return &nsproto.TSIGCredentials{
		KeyName:   keyName,
		Algorithm: algorithm,
		Secret:    key,
	}, nil
}

func secretValue(secret *corev1.Secret, key string) (string, error) {
	raw, ok := secret.Data[key]
	if !ok || len(raw) == 0 {
		return "", fmt.Errorf("secret %s/%s has no %q data", secret.Namespace, secret.Name, key)
	}
	return string(raw), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
