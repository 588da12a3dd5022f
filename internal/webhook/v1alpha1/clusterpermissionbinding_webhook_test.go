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

var _ = Describe("ClusterPermissionBinding Webhook", func() {
	var (
		obj       *authzv1alpha1.ClusterPermissionBinding
		validator ClusterPermissionBindingCustomValidator
	)

	referencedSet := func() *authzv1alpha1.ClusterPermissionSet {
		return &authzv1alpha1.ClusterPermissionSet{
			ObjectMeta: metav1.ObjectMeta{Name: "log-reader"},
			Spec: authzv1alpha1.ClusterPermissionSetSpec{Rules: []authzv1alpha1.Rule{{
				APIGroups:    []string{""},
				Resources:    []string{"pods"},
				Subresources: []string{"log"},
				Verbs:        []string{"get"},
			}}},
		}
	}

	BeforeEach(func() {
		obj = &authzv1alpha1.ClusterPermissionBinding{
			ObjectMeta: metav1.ObjectMeta{Name: "sre-logs"},
			Spec: authzv1alpha1.ClusterPermissionBindingSpec{
				Subjects: []rbacv1.Subject{{Kind: rbacv1.GroupKind, Name: "sre"}},
				PermissionSetRef: authzv1alpha1.PermissionSetRef{
					Kind: authzv1alpha1.RefKindClusterPermissionSet,
					Name: "log-reader",
				},
			},
		}
	})

	Context("When creating or updating ClusterPermissionBinding under Validating Webhook", func() {
		It("Should admit a binding whose referent exists", func() {
			validator = ClusterPermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(warnings).To(BeNil())
			Expect(err).To(BeNil())
		})

		It("Should deny a binding with no subjects", func() {
			validator = ClusterPermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			obj.Spec.Subjects = nil
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError("at least one subject is required"))
		})

		It("Should deny a reference to a namespaced PermissionSet", func() {
			validator = ClusterPermissionBindingCustomValidator{client: newFakeClient(referencedSet())}

			obj.Spec.PermissionSetRef.Kind = authzv1alpha1.RefKindPermissionSet
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("may only reference a ClusterPermissionSet")))
		})

		It("Should deny a binding whose referent does not exist", func() {
			validator = ClusterPermissionBindingCustomValidator{client: newFakeClient()}

			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})
	})
})
