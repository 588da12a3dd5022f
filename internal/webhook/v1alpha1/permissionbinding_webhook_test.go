/*
Copyright 2025.

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

package v1alpha1

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	authzv1alpha1 "antware.xyz/authgate/api/v1alpha1"
)

var _ = Describe("PermissionBinding Webhook", func() {
	var (
		obj       *authzv1alpha1.PermissionBinding
		validator PermissionBindingCustomValidator
	)

	referencedSet := func() *authzv1alpha1.PermissionSet {
		return &authzv1alpha1.PermissionSet{
			ObjectMeta: metav1.ObjectMeta{Name: "pod-reader", Namespace: "default"},
			Spec: authzv1alpha1.PermissionSetSpec{Rules: []authzv1alpha1.Rule{{
				APIGroups: []string{""},
				Resources: []string{"pods"},
				Verbs:     []string{"get"},
			}}},
		}
	}

	BeforeEach(func() {
		obj = &authzv1alpha1.PermissionBinding{
			ObjectMeta: metav1.ObjectMeta{Name: "alice-pods", Namespace: "default"},
			Spec: authzv1alpha1.PermissionBindingSpec{
				Subjects: []rbacv1.Subject{{Kind: rbacv1.UserKind, Name: "alice"}},
				PermissionSetRef: authzv1alpha1.PermissionSetRef{
					Kind: authzv1alpha1.RefKindPermissionSet,
					Name: "pod-reader",
				},
			},
		}
	})

	Context("When creating or updating PermissionBinding under Validating Webhook", func() {
		It("Should admit a binding whose referent exists in its namespace", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(warnings).To(BeNil())
			Expect(err).To(BeNil())
		})

		It("Should deny a binding with no subjects", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			obj.Spec.Subjects = nil
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError("at least one subject is required"))
		})

		It("Should deny a binding whose referent does not exist", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient()}

			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})

		It("Should deny a reference into another namespace", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			obj.Spec.PermissionSetRef.Namespace = "other"
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("its own namespace")))
		})

		It("Should resolve the referent in the binding namespace, not elsewhere", func() {
			set := referencedSet()
			set.Namespace = "other"
			validator = PermissionBindingCustomValidator{client: newFakeClient(set)}

			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})

		It("Should admit a reference to an existing ClusterPermissionSet", func() {
			clusterSet := &authzv1alpha1.ClusterPermissionSet{
				ObjectMeta: metav1.ObjectMeta{Name: "log-reader"},
				Spec: authzv1alpha1.ClusterPermissionSetSpec{Rules: []authzv1alpha1.Rule{{
					APIGroups:    []string{""},
					Resources:    []string{"pods"},
					Subresources: []string{"log"},
					Verbs:        []string{"get"},
				}}},
			}
			validator = PermissionBindingCustomValidator{client: newFakeClient(clusterSet)}

			obj.Spec.PermissionSetRef = authzv1alpha1.PermissionSetRef{
				Kind: authzv1alpha1.RefKindClusterPermissionSet,
				Name: "log-reader",
			}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(BeNil())
		})

		It("Should deny an unknown reference kind", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			obj.Spec.PermissionSetRef.Kind = "Role"
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("permissionSetRef.kind")))
		})

		It("Should apply the same checks on update", func() {
			validator = PermissionBindingCustomValidator{client: newFakeClient()}

			oldObj := obj.DeepCopy()
			_, err := validator.ValidateUpdate(ctx, oldObj, obj)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})
	})
})
