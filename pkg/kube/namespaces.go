package kube

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// NewNamespace creates the namespace if it does not already exist.
func NewNamespace(ctx context.Context, name string, cli kubernetes.Interface) (*corev1.Namespace, error) {
	existing, err := cli.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
	return cli.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
}

// DeleteNamespace removes the namespace; deleting a namespace that is
// already gone is not an error.
func DeleteNamespace(ctx context.Context, name string, cli kubernetes.Interface) error {
	err := cli.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}
